// Package notify delivers order-created alerts.
package notify

import (
	"context"
	"errors"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, order *models.Order) error
}

type NotifierFunc func(ctx context.Context, order *models.Order) error

func (f NotifierFunc) Notify(ctx context.Context, order *models.Order) error {
	return f(ctx, order)
}

// Multi delivers to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, order *models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
