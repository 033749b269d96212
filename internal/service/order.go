package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/gypsum_shop/internal/events"
	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/notify"
	"github.com/Skotchmaster/gypsum_shop/internal/payment"
	"github.com/Skotchmaster/gypsum_shop/internal/pricing"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

const (
	maxClientNameLen = 100
	maxAddressLen    = 255
	publishTimeout   = 5 * time.Second
)

type OrderService struct {
	Repo           *repo.GormRepo
	Gateway        payment.Gateway
	Notifier       notify.Notifier
	Events         events.Publisher
	HostURL        string
	Currency       string
	PaymentTimeout time.Duration
	Now            func() time.Time
}

type AdminOrderInput struct {
	ClientName      string
	ProductID       uint
	Quantity        int
	DeliveryAddress string
	Status          models.OrderStatus
	PaymentStatus   models.PaymentStatus
}

// OrderPatch holds the admin-editable fields; nil means unchanged.
type OrderPatch struct {
	ClientName      *string
	Quantity        *int
	DeliveryAddress *string
	Status          *models.OrderStatus
	PaymentStatus   *models.PaymentStatus
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OrderService) paymentCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.PaymentTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *OrderService) publish(ctx context.Context, order *models.Order, typ string) {
	ev := events.Event{
		Type:       typ,
		OrderID:    order.ID,
		ProductID:  order.ProductID,
		Status:     string(order.Status),
		Payment:    string(order.PaymentStatus),
		Amount:     pricing.QuoteOrder(order).Amount(),
		PaymentID:  order.PaymentID,
		OccurredAt: s.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Events.PublishEvent(ctx, events.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_error", "topic", events.TopicOrders, "type", typ, "order_id", order.ID, "error", err)
	}
}

func validateOrderFields(clientName string, quantity int, address string) (string, string, error) {
	clientName = strings.TrimSpace(clientName)
	address = strings.TrimSpace(address)

	switch {
	case clientName == "":
		return "", "", fmt.Errorf("%w: client_name required", ErrValidation)
	case utf8.RuneCountInString(clientName) > maxClientNameLen:
		return "", "", fmt.Errorf("%w: client_name longer than %d", ErrValidation, maxClientNameLen)
	case address == "":
		return "", "", fmt.Errorf("%w: delivery_address required", ErrValidation)
	case utf8.RuneCountInString(address) > maxAddressLen:
		return "", "", fmt.Errorf("%w: delivery_address longer than %d", ErrValidation, maxAddressLen)
	case quantity < 1:
		return "", "", fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	return clientName, address, nil
}

// CreateOrder records a customer order and alerts the shop. A failed alert
// never fails the order.
func (s *OrderService) CreateOrder(ctx context.Context, clientName string, quantity int, deliveryAddress string, productID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	clientName, deliveryAddress, err := validateOrderFields(clientName, quantity, deliveryAddress)
	if err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}

	order, err := s.Repo.CreateOrder(ctx, &models.Order{
		ClientName:      clientName,
		ProductID:       productID,
		Quantity:        uint(quantity),
		DeliveryAddress: deliveryAddress,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return nil, notFound(err, "product")
	}

	if err := s.Notifier.Notify(ctx, order); err != nil {
		l.Warn("notify_error", "order_id", order.ID, "error", err)
	}
	s.publish(ctx, order, "order_created")

	l.Info("order_created", "order_id", order.ID, "total", pricing.QuoteOrder(order).Amount())
	return order, nil
}

func (s *OrderService) CreateOrderAdmin(ctx context.Context, in AdminOrderInput) (*models.Order, error) {
	clientName, address, err := validateOrderFields(in.ClientName, in.Quantity, in.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = models.PaymentUnpaid
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if !in.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment_status %q", ErrValidation, in.PaymentStatus)
	}
	if _, err := s.Repo.GetProduct(ctx, in.ProductID); err != nil {
		return nil, notFound(err, "product")
	}

	order, err := s.Repo.CreateOrder(ctx, &models.Order{
		ClientName:      clientName,
		ProductID:       in.ProductID,
		Quantity:        uint(in.Quantity),
		DeliveryAddress: address,
		Status:          in.Status,
		PaymentStatus:   in.PaymentStatus,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, order, "order_created")
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

func validateFilter(f repo.OrderFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return fmt.Errorf("%w: unknown payment_status %q", ErrValidation, f.PaymentStatus)
	}
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context, f repo.OrderFilter) (int64, []models.Order, error) {
	if err := validateFilter(f); err != nil {
		return 0, nil, err
	}
	return s.Repo.ListOrders(ctx, f)
}

func (s *OrderService) UpdateOrder(ctx context.Context, id uint, p OrderPatch) (*models.Order, error) {
	current, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}

	fields := map[string]any{}
	if p.ClientName != nil || p.DeliveryAddress != nil || p.Quantity != nil {
		name, address, qty := current.ClientName, current.DeliveryAddress, int(current.Quantity)
		if p.ClientName != nil {
			name = *p.ClientName
		}
		if p.DeliveryAddress != nil {
			address = *p.DeliveryAddress
		}
		if p.Quantity != nil {
			qty = *p.Quantity
		}
		name, address, err = validateOrderFields(name, qty, address)
		if err != nil {
			return nil, err
		}
		fields["client_name"] = name
		fields["delivery_address"] = address
		fields["quantity"] = uint(qty)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		fields["status"] = *p.Status
	}
	if p.PaymentStatus != nil {
		if !p.PaymentStatus.Valid() {
			return nil, fmt.Errorf("%w: unknown payment_status %q", ErrValidation, *p.PaymentStatus)
		}
		fields["payment_status"] = *p.PaymentStatus
	}

	order, err := s.Repo.UpdateOrder(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if len(fields) > 0 {
		s.publish(ctx, order, "order_updated")
	}
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return notFound(err, "order")
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	s.publish(ctx, order, "order_deleted")
	return nil
}

func (s *OrderService) returnURL(id uint) string {
	return fmt.Sprintf("%s/order/%d/paypal/execute/", s.HostURL, id)
}

func (s *OrderService) cancelURL(id uint) string {
	return fmt.Sprintf("%s/order/%d/success/", s.HostURL, id)
}

// InitiatePayment opens a payment for the order's live total and returns
// the URL the customer has to approve it at.
func (s *OrderService) InitiatePayment(ctx context.Context, id uint) (string, error) {
	l := logging.FromContext(ctx).With("svc", "order.initiate_payment", "order_id", id)

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return "", notFound(err, "order")
	}
	if order.PaymentStatus == models.PaymentPaid {
		l.Warn("payment_create_error", "reason", "order already paid")
		return "", fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, ErrAlreadyPaid)
	}
	quote := pricing.QuoteOrder(order)

	pctx, cancel := s.paymentCtx(ctx)
	defer cancel()

	approval, err := s.Gateway.CreatePayment(pctx, payment.PaymentRequest{
		Amount:      quote.Amount(),
		Currency:    s.Currency,
		Description: fmt.Sprintf("Оплата заказа №%d", order.ID),
		ReturnURL:   s.returnURL(order.ID),
		CancelURL:   s.cancelURL(order.ID),
		Reference:   strconv.FormatUint(uint64(order.ID), 10),
	})
	if err != nil {
		l.Warn("payment_create_error", "error", err)
		return "", fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, err)
	}
	if approval.ApprovalURL == "" {
		l.Warn("payment_create_error", "reason", "no approval url", "payment_id", approval.PaymentID)
		return "", fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, payment.ErrNoApprovalLink)
	}

	l.Info("payment_created", "payment_id", approval.PaymentID, "amount", quote.Amount())
	return approval.ApprovalURL, nil
}

// ConfirmPayment executes an approved payment and marks the order paid.
// Repeated confirmations of a paid order succeed without touching the
// gateway.
func (s *OrderService) ConfirmPayment(ctx context.Context, id uint, paymentID, payerID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.confirm_payment", "order_id", id, "payment_id", paymentID)

	if strings.TrimSpace(paymentID) == "" {
		return nil, fmt.Errorf("%w: payment id required", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if order.PaymentStatus == models.PaymentPaid {
		l.Info("payment_already_confirmed")
		return order, nil
	}

	handle, err := s.findPayment(ctx, paymentID)
	if err != nil {
		l.Warn("payment_find_error", "error", err)
		return nil, err
	}
	if handle.Reference != "" && handle.Reference != strconv.FormatUint(uint64(id), 10) {
		l.Warn("payment_find_error", "reason", "payment belongs to another order", "reference", handle.Reference)
		return nil, fmt.Errorf("%w: payment belongs to another order", ErrPaymentConfirmationFailed)
	}

	if err := s.executePayment(ctx, handle, payerID); err != nil {
		if !s.capturedElsewhere(ctx, id, paymentID) {
			l.Warn("payment_execute_error", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPaymentConfirmationFailed, err)
		}
		l.Info("payment_captured_concurrently", "execute_error", err)
	}

	paid, applied, err := s.Repo.MarkPaid(ctx, id, paymentID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if applied {
		s.publish(ctx, paid, "order_paid")
		l.Info("payment_confirmed", "amount", pricing.QuoteOrder(paid).Amount())
	}
	return paid, nil
}

func (s *OrderService) findPayment(ctx context.Context, paymentID string) (*payment.Handle, error) {
	pctx, cancel := s.paymentCtx(ctx)
	defer cancel()

	handle, err := s.Gateway.FindPayment(pctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrPaymentConfirmationFailed, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", ErrPaymentConfirmationFailed, err)
	}
	return handle, nil
}

// capturedElsewhere reports whether a failed capture lost a race with a
// duplicate callback: the order is already paid with this payment, or the
// processor shows the payment completed.
func (s *OrderService) capturedElsewhere(ctx context.Context, id uint, paymentID string) bool {
	order, err := s.Repo.GetOrder(ctx, id)
	if err == nil && order.PaymentStatus == models.PaymentPaid && order.PaymentID == paymentID {
		return true
	}
	handle, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return false
	}
	return handle.Completed()
}

func (s *OrderService) executePayment(ctx context.Context, handle *payment.Handle, payerID string) error {
	pctx, cancel := s.paymentCtx(ctx)
	defer cancel()
	return s.Gateway.ExecutePayment(pctx, handle, payerID)
}
