package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/events"
	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/notify"
	"github.com/Skotchmaster/gypsum_shop/internal/payment"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/testdb"
)

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) CreatePayment(ctx context.Context, req payment.PaymentRequest) (payment.Approval, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Approval), args.Error(1)
}

func (m *gatewayMock) FindPayment(ctx context.Context, id string) (*payment.Handle, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*payment.Handle)
	return h, args.Error(1)
}

func (m *gatewayMock) ExecutePayment(ctx context.Context, h *payment.Handle, payerID string) error {
	return m.Called(ctx, h, payerID).Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if ev, ok := event.(events.Event); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []models.Order
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, o *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, *o)
	return n.err
}

var _ notify.Notifier = (*recordingNotifier)(nil)

type orderFixture struct {
	db       *gorm.DB
	svc      *OrderService
	gateway  *gatewayMock
	notifier *recordingNotifier
	events   *recordingPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	db := testdb.Open(t)
	f := &orderFixture{
		db:       db,
		gateway:  &gatewayMock{},
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
	}
	f.svc = &OrderService{
		Repo:     &repo.GormRepo{DB: db},
		Gateway:  f.gateway,
		Notifier: f.notifier,
		Events:   f.events,
		HostURL:  "https://shop.example",
		Currency: "USD",
	}
	return f
}

func (f *orderFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}
