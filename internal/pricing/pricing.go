// Package pricing computes order totals with exact decimal arithmetic.
// Every place that shows or charges an order amount goes through Quote.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

type Quote struct {
	UnitPrice decimal.Decimal
	Quantity  uint
	Total     decimal.Decimal
}

func Total(unitPrice decimal.Decimal, quantity uint) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func NewQuote(unitPrice decimal.Decimal, quantity uint) Quote {
	return Quote{
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Total:     Total(unitPrice, quantity),
	}
}

// QuoteOrder prices an order against its loaded product.
func QuoteOrder(o *models.Order) Quote {
	return NewQuote(o.Product.Price, o.Quantity)
}

// Amount is the grand total with two decimal places.
func (q Quote) Amount() string {
	return Format(q.Total)
}

func (q Quote) UnitAmount() string {
	return Format(q.UnitPrice)
}
