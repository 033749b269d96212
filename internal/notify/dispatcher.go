package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

var (
	ErrQueueFull        = errors.New("notify: queue full")
	ErrDispatcherClosed = errors.New("notify: dispatcher closed")
)

type DispatcherOptions struct {
	Workers         int
	QueueSize       int
	MaxTries        int
	AttemptTimeout  time.Duration
	InitialInterval time.Duration
	Logger          *slog.Logger
}

// Dispatcher moves delivery off the caller's goroutine: Notify only
// enqueues, workers deliver with bounded retries.
type Dispatcher struct {
	sink Notifier
	opts DispatcherOptions
	jobs chan *models.Order

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Notifier, opts DispatcherOptions) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	if opts.MaxTries < 1 {
		opts.MaxTries = 1
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	d := &Dispatcher{
		sink: sink,
		opts: opts,
		jobs: make(chan *models.Order, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) Notify(_ context.Context, order *models.Order) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	snapshot := *order
	select {
	case d.jobs <- &snapshot:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued notifications.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for order := range d.jobs {
		d.deliver(order)
	}
}

func (d *Dispatcher) deliver(order *models.Order) {
	l := d.opts.Logger.With("component", "notify.dispatcher", "order_id", order.ID)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.InitialInterval

	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.AttemptTimeout)
		defer cancel()
		return struct{}{}, d.sink.Notify(ctx, order)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(d.opts.MaxTries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.Warn("notify_retry", "error", err, "next_in_ms", next.Milliseconds())
		}),
	)
	if err != nil {
		l.Error("notify_failed", "reason", "retries exhausted", "error", err)
		return
	}
	l.Info("notify_delivered")
}
