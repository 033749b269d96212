package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/plutov/paypal/v4"
)

const (
	statusCompleted = "COMPLETED"
	statusApproved  = "APPROVED"
)

type ordersAPI interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

type PayPalGateway struct {
	api ordersAPI
}

// NewPayPalGateway builds a client for mode "sandbox" or "live".
func NewPayPalGateway(clientID, secret, mode string) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if strings.EqualFold(mode, "live") {
		base = paypal.APIBaseLive
	}
	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	return &PayPalGateway{api: c}, nil
}

func (g *PayPalGateway) CreatePayment(ctx context.Context, req PaymentRequest) (Approval, error) {
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: req.Reference,
		Description: req.Description,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount,
		},
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	}

	order, err := g.api.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return Approval{}, fmt.Errorf("paypal create order: %w", err)
	}

	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "approval_url" {
			return Approval{PaymentID: order.ID, ApprovalURL: link.Href}, nil
		}
	}
	return Approval{}, fmt.Errorf("paypal order %s: %w", order.ID, ErrNoApprovalLink)
}

func (g *PayPalGateway) FindPayment(ctx context.Context, id string) (*Handle, error) {
	order, err := g.api.GetOrder(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("paypal order %s: %w", id, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("paypal get order %s: %w", id, err)
	}

	h := &Handle{ID: order.ID, Status: order.Status}
	if order.Payer != nil {
		h.PayerID = order.Payer.PayerID
	}
	if len(order.PurchaseUnits) > 0 {
		h.Reference = order.PurchaseUnits[0].ReferenceID
	}
	return h, nil
}

// ExecutePayment captures an approved order. Orders captured earlier
// count as executed.
func (g *PayPalGateway) ExecutePayment(ctx context.Context, h *Handle, payerID string) error {
	if h.Status == statusCompleted {
		return nil
	}
	if payerID != "" && h.PayerID != "" && payerID != h.PayerID {
		return fmt.Errorf("paypal order %s: %w", h.ID, ErrPayerMismatch)
	}

	res, err := g.api.CaptureOrder(ctx, h.ID, paypal.CaptureOrderRequest{})
	if err != nil {
		return fmt.Errorf("paypal capture %s: %w", h.ID, err)
	}
	if res.Status != statusCompleted {
		return fmt.Errorf("paypal capture %s: status %q: %w", h.ID, res.Status, ErrPaymentNotClosed)
	}
	return nil
}

func isNotFound(err error) bool {
	var perr *paypal.ErrorResponse
	if errors.As(err, &perr) && perr.Response != nil {
		return perr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
