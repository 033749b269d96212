package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultUnit = "шт."

const DefaultProductImage = "/static/default_product_image.jpg"

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"           json:"id"`
	Name        string          `gorm:"size:100;not null"                  json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"        json:"price"`
	Description string          `gorm:"not null;default:''"                json:"description"`
	Unit        string          `gorm:"size:20;not null;default:'шт.'"     json:"unit"`
	Image       string          `gorm:"size:255"                           json:"image,omitempty"`
}

func (p Product) ImageURL() string {
	if p.Image != "" {
		return p.Image
	}
	return DefaultProductImage
}

type Warehouse struct {
	ID              uint    `gorm:"primaryKey;autoIncrement"                         json:"id"`
	ProductID       uint    `gorm:"index;not null"                                   json:"product_id"`
	Product         Product `gorm:"constraint:OnDelete:CASCADE"                      json:"product"`
	QuantityInStock uint    `gorm:"not null;default:0"                               json:"quantity_in_stock"`
}

func (Warehouse) TableName() string { return "warehouse" }

type Order struct {
	ID              uint          `gorm:"primaryKey;autoIncrement"               json:"id"`
	ClientName      string        `gorm:"size:100;not null"                      json:"client_name"`
	ProductID       uint          `gorm:"index;not null"                         json:"product_id"`
	Product         Product       `gorm:"constraint:OnDelete:CASCADE"            json:"product"`
	Quantity        uint          `gorm:"not null;check:quantity>0"              json:"quantity"`
	DeliveryAddress string        `gorm:"size:255;not null"                      json:"delivery_address"`
	Status          OrderStatus   `gorm:"size:20;not null;default:'Pending'"     json:"status"`
	PaymentStatus   PaymentStatus `gorm:"size:20;not null;default:'Unpaid'"      json:"payment_status"`
	PaymentID       string        `gorm:"size:64;index"                          json:"payment_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;index"                         json:"created_at"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// All lists every persisted model in migration order.
func All() []any {
	return []any{&Product{}, &Warehouse{}, &Order{}, &User{}}
}
