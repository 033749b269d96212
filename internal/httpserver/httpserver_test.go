package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/events"
	"github.com/Skotchmaster/gypsum_shop/internal/invoice"
	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/notify"
	"github.com/Skotchmaster/gypsum_shop/internal/payment"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/testdb"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/pkg/tokens"
)

var secret = []byte("handler-test-secret")

type fakeGateway struct {
	approval  payment.Approval
	createErr error
	created   []payment.PaymentRequest
	handle    *payment.Handle
	findErr   error
	execErr   error
	executed  int
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.PaymentRequest) (payment.Approval, error) {
	g.created = append(g.created, req)
	return g.approval, g.createErr
}

func (g *fakeGateway) FindPayment(_ context.Context, id string) (*payment.Handle, error) {
	if g.findErr != nil {
		return nil, g.findErr
	}
	if g.handle != nil {
		return g.handle, nil
	}
	return &payment.Handle{ID: id, Status: "APPROVED"}, nil
}

func (g *fakeGateway) ExecutePayment(context.Context, *payment.Handle, string) error {
	g.executed++
	return g.execErr
}

type server struct {
	e       *echo.Echo
	db      *gorm.DB
	gateway *fakeGateway
	product *models.Product
}

func newServer(t *testing.T) *server {
	t.Helper()

	db := testdb.Open(t)
	r := &repo.GormRepo{DB: db}
	gw := &fakeGateway{approval: payment.Approval{PaymentID: "PAY-1", ApprovalURL: "https://paypal.example/approve?token=PAY-1"}}

	orders := &service.OrderService{
		Repo:     r,
		Gateway:  gw,
		Notifier: notify.NotifierFunc(func(context.Context, *models.Order) error { return nil }),
		Events:   events.Nop{},
		HostURL:  "https://shop.example",
		Currency: "USD",
	}

	e := echo.New()
	e.Validator = transport.NewRequestValidator()
	e.Pre(echomw.RemoveTrailingSlash())
	Register(e, &Deps{
		Orders:    &OrderHTTP{Svc: orders, Invoices: &invoice.Renderer{Currency: "USD"}},
		Catalog:   &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: events.Nop{}}},
		Warehouse: &WarehouseHTTP{Svc: &service.WarehouseService{Repo: r}},
		Auth:      &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: secret, AccessTTL: time.Hour}},
		JWTSecret: secret,
		DB:        db,
	})

	return &server{e: e, db: db, gateway: gw, product: testdb.SeedProduct(t, db, "Gypsum board", "1000.00")}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	tok, err := tokens.SignAccessToken("1", models.RoleAdmin, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func (s *server) placeOrder(t *testing.T) uint {
	t.Helper()
	body := `{"client_name":"Aigerim","quantity":3,"delivery_address":"Almaty, Abay 1"}`
	req := httptest.NewRequest(http.MethodPost, "/order/new?product_id=1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestCreateOrder_JSON(t *testing.T) {
	s := newServer(t)

	body := `{"client_name":"Aigerim","quantity":3,"delivery_address":"Almaty, Abay 1"}`
	req := httptest.NewRequest(http.MethodPost, "/order/new?product_id=1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "3000.00", resp["total_price"])
	assert.Equal(t, "Pending", resp["status"])
	assert.Equal(t, "Unpaid", resp["payment_status"])
	assert.Equal(t, "Заказ №1 оформлен!", resp["message"])
}

func TestCreateOrder_FormRedirects(t *testing.T) {
	s := newServer(t)

	form := url.Values{"client_name": {"Aigerim"}, "quantity": {"2"}, "delivery_address": {"Almaty"}}
	req := httptest.NewRequest(http.MethodPost, "/order/new/?product_id=1", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	rec := s.do(req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/order/1/success/?message="))
}

func TestCreateOrder_Errors(t *testing.T) {
	s := newServer(t)

	cases := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"unknown product", "/order/new?product_id=99", `{"client_name":"A","quantity":1,"delivery_address":"B"}`, http.StatusNotFound},
		{"missing product", "/order/new", `{"client_name":"A","quantity":1,"delivery_address":"B"}`, http.StatusBadRequest},
		{"zero quantity", "/order/new?product_id=1", `{"client_name":"A","quantity":0,"delivery_address":"B"}`, http.StatusBadRequest},
		{"blank client", "/order/new?product_id=1", `{"client_name":"   ","quantity":1,"delivery_address":"B"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			assert.Equal(t, tc.code, s.do(req).Code)
		})
	}

	var n int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrderSuccessAndInvoice(t *testing.T) {
	s := newServer(t)
	id := s.placeOrder(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/order/1/success/?message=ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_price":"3000.00"`)
	assert.Contains(t, rec.Body.String(), `"message":"ok"`)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/order/1/invoice.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `inline; filename="invoice_order_1.pdf"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	assert.EqualValues(t, 1, id)

	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/order/9/invoice.pdf", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(httptest.NewRequest(http.MethodGet, "/order/abc/success", nil)).Code)
}

func TestPayPalStart(t *testing.T) {
	s := newServer(t)
	s.placeOrder(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal/", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://paypal.example/approve?token=PAY-1", rec.Header().Get(echo.HeaderLocation))
	require.Len(t, s.gateway.created, 1)
	assert.Equal(t, "3000.00", s.gateway.created[0].Amount)

	s.gateway.createErr = errors.New("paypal down")
	rec = s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/order/1/success/?error="))

	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/order/42/paypal", nil)).Code)
}

func TestPayPalExecute(t *testing.T) {
	s := newServer(t)
	s.placeOrder(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal/execute/?token=PAY-1&PayerID=P1", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "message=")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal/execute?paymentId=PAY-1&PayerID=P1", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "message=")
	assert.Equal(t, 1, s.gateway.executed, "second confirmation does not reach the gateway")

	var order models.Order
	require.NoError(t, s.db.First(&order, 1).Error)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.StatusCompleted, order.Status)
	assert.Equal(t, "PAY-1", order.PaymentID)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "/order/1/success/?message=")
	assert.Empty(t, s.gateway.created, "paid orders do not open a second payment")
}

func TestPayPalExecute_Failure(t *testing.T) {
	s := newServer(t)
	s.placeOrder(t)
	s.gateway.execErr = errors.New("INSTRUMENT_DECLINED")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal/execute?token=PAY-1&PayerID=P1", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/order/1/paypal/execute", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=")

	var order models.Order
	require.NoError(t, s.db.First(&order, 1).Error)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
}

func TestCatalog(t *testing.T) {
	s := newServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/?q=board", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gypsum board")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/?q=zzz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ничего не найдено")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/products/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.DefaultProductImage)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(httptest.NewRequest(http.MethodGet, "/admin/orders", nil)).Code)

	tok, err := tokens.SignAccessToken("2", models.RoleUser, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	assert.Equal(t, http.StatusForbidden, s.do(req).Code)
}

func TestAdmin_Orders(t *testing.T) {
	s := newServer(t)
	s.placeOrder(t)
	cookie := s.adminCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=Pending&q=aig", nil)
	req.AddCookie(cookie)
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	req = httptest.NewRequest(http.MethodPatch, "/admin/orders/1", strings.NewReader(`{"status":"Lost"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPatch, "/admin/orders/1", strings.NewReader(`{"status":"Shipped"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(cookie)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Shipped"`)

	req = httptest.NewRequest(http.MethodGet, "/admin/orders/export.csv", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=orders.csv", rec.Header().Get(echo.HeaderContentDisposition))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), ",3000.00"))

	req = httptest.NewRequest(http.MethodDelete, "/admin/orders/1", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNoContent, s.do(req).Code)
}

func TestAdmin_ProductsAndWarehouse(t *testing.T) {
	s := newServer(t)
	cookie := s.adminCookie(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":"Plaster","price":"5.50"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(cookie)
	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"unit":"шт."`)

	req = httptest.NewRequest(http.MethodPost, "/admin/warehouse", strings.NewReader(`{"product_id":1,"quantity_in_stock":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(cookie)
	require.Equal(t, http.StatusCreated, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/warehouse", strings.NewReader(`{"product_id":77,"quantity_in_stock":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/admin/products/1", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNoContent, s.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/warehouse", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"dana","password":"password123","password_confirm":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"dana","password":"password123","password_confirm":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusConflict, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"dana","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"dana","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), tokens.AccessCookie+"=")
	assert.Contains(t, rec.Body.String(), `"is_admin":false`)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
}
