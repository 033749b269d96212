package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/invoice"
	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/pricing"
	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/internal/util"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

const (
	msgPaymentCreateFailed  = "Ошибка при создании платежа PayPal"
	msgPaymentConfirmFailed = "Ошибка при подтверждении оплаты"
	msgPaymentDone          = "Платеж успешно выполнен!"
	msgAlreadyPaid          = "Заказ уже оплачен"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Invoices *invoice.Renderer
}

type orderView struct {
	*models.Order
	TotalPrice string `json:"total_price"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newOrderView(o *models.Order) orderView {
	return orderView{Order: o, TotalPrice: pricing.QuoteOrder(o).Amount()}
}

func successPath(id uint, key, msg string) string {
	p := fmt.Sprintf("/order/%d/success/", id)
	if msg == "" {
		return p
	}
	return p + "?" + url.Values{key: {msg}}.Encode()
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	raw := c.QueryParam("product_id")
	if raw == "" {
		raw = c.FormValue("product_id")
	}
	productID, err := util.ParseID(raw)
	if err != nil || productID == 0 {
		l.Warn("create_order_error", "status", 400, "reason", "product_id required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	var req transport.CreateOrderRequest
	if err := bindAndValidate(c, l, "create_order", &req); err != nil {
		return err
	}

	order, err := h.Svc.CreateOrder(ctx, req.ClientName, req.Quantity, req.DeliveryAddress, productID)
	if err != nil {
		return fail(l, "create_order", err)
	}

	msg := fmt.Sprintf("Заказ №%d оформлен!", order.ID)
	l.Info("create_order_success", "order_id", order.ID)
	if wantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, successPath(order.ID, "message", msg))
	}
	v := newOrderView(order)
	v.Message = msg
	return c.JSON(http.StatusCreated, v)
}

func (h *OrderHTTP) OrderSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.success")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "order_success", err)
	}
	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "order_success", err)
	}

	v := newOrderView(order)
	v.Message = c.QueryParam("message")
	v.Error = c.QueryParam("error")
	return c.JSON(http.StatusOK, v)
}

func (h *OrderHTTP) Invoice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.invoice")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "invoice", err)
	}
	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "invoice", err)
	}

	var buf bytes.Buffer
	if err := h.Invoices.Render(&buf, order, pricing.QuoteOrder(order)); err != nil {
		return fail(l, "invoice", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, invoice.Filename(order.ID)))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *OrderHTTP) StartPayPal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.paypal")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "paypal_start", err)
	}

	approvalURL, err := h.Svc.InitiatePayment(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyPaid) {
			l.Info("paypal_start_skipped", "reason", "order already paid")
			return c.Redirect(http.StatusFound, successPath(id, "message", msgAlreadyPaid))
		}
		if errors.Is(err, service.ErrPaymentInitiationFailed) {
			l.Warn("paypal_start_error", "status", http.StatusFound, "reason", "gateway failed", "error", err)
			return c.Redirect(http.StatusFound, successPath(id, "error", msgPaymentCreateFailed))
		}
		return fail(l, "paypal_start", err)
	}
	return c.Redirect(http.StatusFound, approvalURL)
}

// ExecutePayPal is the gateway return URL. PayPal sends the payment id as
// paymentId (v1) or token (v2 orders) together with PayerID.
func (h *OrderHTTP) ExecutePayPal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.paypal_execute")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badID(l, "paypal_execute", err)
	}

	paymentID := c.QueryParam("paymentId")
	if paymentID == "" {
		paymentID = c.QueryParam("token")
	}

	_, err = h.Svc.ConfirmPayment(ctx, id, paymentID, c.QueryParam("PayerID"))
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, successPath(id, "message", msgPaymentDone))
	case errors.Is(err, service.ErrPaymentConfirmationFailed), errors.Is(err, service.ErrValidation):
		l.Warn("paypal_execute_error", "status", http.StatusFound, "reason", "confirmation failed", "error", err)
		return c.Redirect(http.StatusFound, successPath(id, "error", msgPaymentConfirmFailed))
	default:
		return fail(l, "paypal_execute", err)
	}
}
