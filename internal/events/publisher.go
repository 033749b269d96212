package events

import (
	"context"
	"time"
)

const (
	TopicOrders   = "order_events"
	TopicProducts = "product_events"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Event struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"orderID,omitempty"`
	ProductID  uint      `json:"productID,omitempty"`
	Name       string    `json:"name,omitempty"`
	Status     string    `json:"status,omitempty"`
	Payment    string    `json:"paymentStatus,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	PaymentID  string    `json:"paymentID,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }

func (Nop) Close() error { return nil }
