// Package payment talks to the external payment processor.
package payment

import (
	"context"
	"errors"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrNoApprovalLink   = errors.New("payment has no approval link")
	ErrPayerMismatch    = errors.New("payer does not match payment")
	ErrPaymentNotClosed = errors.New("payment was not completed")
)

type PaymentRequest struct {
	Amount      string
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
	Reference   string
}

type Approval struct {
	PaymentID   string
	ApprovalURL string
}

// Handle is a payment as the processor currently sees it.
type Handle struct {
	ID        string
	Status    string
	PayerID   string
	Reference string
}

// Completed reports whether the processor has already captured the funds.
func (h *Handle) Completed() bool {
	return h != nil && h.Status == statusCompleted
}

type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (Approval, error)
	FindPayment(ctx context.Context, id string) (*Handle, error)
	ExecutePayment(ctx context.Context, h *Handle, payerID string) error
}
