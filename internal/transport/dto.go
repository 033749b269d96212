package transport

import "github.com/shopspring/decimal"

type CreateOrderRequest struct {
	ClientName      string `json:"client_name"      form:"client_name"      validate:"required,max=100"`
	Quantity        int    `json:"quantity"         form:"quantity"         validate:"required,min=1"`
	DeliveryAddress string `json:"delivery_address" form:"delivery_address" validate:"required,max=255"`
}

type AdminOrderRequest struct {
	ClientName      string `json:"client_name"      validate:"required,max=100"`
	ProductID       uint   `json:"product_id"       validate:"required"`
	Quantity        int    `json:"quantity"         validate:"required,min=1"`
	DeliveryAddress string `json:"delivery_address" validate:"required,max=255"`
	Status          string `json:"status"           validate:"omitempty,oneof=Pending Shipped Completed Cancelled"`
	PaymentStatus   string `json:"payment_status"   validate:"omitempty,oneof=Unpaid Paid"`
}

type PatchOrderRequest struct {
	ClientName      *string `json:"client_name"      validate:"omitempty,max=100"`
	Quantity        *int    `json:"quantity"         validate:"omitempty,min=1"`
	DeliveryAddress *string `json:"delivery_address" validate:"omitempty,max=255"`
	Status          *string `json:"status"           validate:"omitempty,oneof=Pending Shipped Completed Cancelled"`
	PaymentStatus   *string `json:"payment_status"   validate:"omitempty,oneof=Unpaid Paid"`
}

type ProductRequest struct {
	Name        string          `json:"name"        validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"        validate:"max=20"`
	Image       string          `json:"image"       validate:"max=255"`
}

type StockRequest struct {
	ProductID       uint `json:"product_id"        validate:"required"`
	QuantityInStock *int `json:"quantity_in_stock" validate:"required,min=0"`
}

type RegisterRequest struct {
	Username        string `json:"username"         form:"username"         validate:"required,max=150"`
	Password        string `json:"password"         form:"password"         validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}
