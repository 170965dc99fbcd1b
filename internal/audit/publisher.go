package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"claimguard/internal/claims/models"
)

const (
	DefaultBufferSize    = 10000
	DefaultBatchSize     = 100
	DefaultFlushInterval = 500 * time.Millisecond
	DefaultStoreTimeout  = 5 * time.Second
)

// Publisher is the lifecycle manager's audit sink. Record only enqueues; a
// background loop started by Run writes batches to the store in order and
// keeps retrying a failed batch until it is accepted.
type Publisher struct {
	store   Store
	queue   *queue
	breaker *breaker
	logger  *slog.Logger
	metrics *Metrics

	batchSize     int
	flushInterval time.Duration
	storeTimeout  time.Duration

	wake chan struct{}

	mu     sync.Mutex
	closed bool
	// flushMu serialises flushes between Run and Close.
	flushMu sync.Mutex
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = newQueue(n)
		}
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// WithBreaker tunes the store circuit breaker.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(p *Publisher) {
		p.breaker = newBreaker(threshold, cooldown, nil)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		queue:         newQueue(DefaultBufferSize),
		breaker:       newBreaker(5, 10*time.Second, nil),
		logger:        slog.Default(),
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		storeTimeout:  DefaultStoreTimeout,
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Record enqueues entry for delivery. It never waits on the store.
func (p *Publisher) Record(ctx context.Context, entry models.AuditEntry) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.metrics.incRejected("closed")
		return ErrClosed
	}
	if !p.queue.TryEnqueue(entry) {
		p.metrics.incRejected("buffer_full")
		return ErrBufferFull
	}
	p.metrics.incEnqueued(p.queue.Len())
	if p.queue.Len() >= p.batchSize {
		p.signal()
	}
	return nil
}

func (p *Publisher) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run flushes on every interval tick and whenever a full batch is waiting.
// It returns when ctx is cancelled; call Close afterwards to drain.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.wake:
		}
		for p.queue.Len() > 0 {
			if err := p.flush(ctx); err != nil {
				break
			}
		}
	}
}

// flush writes one batch from the head of the queue.
func (p *Publisher) flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	batch := p.queue.Peek(p.batchSize)
	if len(batch) == 0 {
		return nil
	}
	if !p.breaker.Allow() {
		return fmt.Errorf("audit store circuit open")
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.storeTimeout)
	defer cancel()
	if err := p.store.Append(sctx, batch...); err != nil {
		p.metrics.incFlushFailure()
		if p.breaker.RecordFailure() {
			p.metrics.incBreakerOpened()
			p.logger.ErrorContext(ctx, "audit store failing, pausing flushes",
				"queued", p.queue.Len(),
				"error", err,
			)
		} else {
			p.logger.WarnContext(ctx, "audit flush failed, will retry",
				"batch", len(batch),
				"error", err,
			)
		}
		return err
	}
	p.breaker.RecordSuccess()
	p.queue.Discard(len(batch))
	p.metrics.addFlushed(len(batch), p.queue.Len())
	return nil
}

// Close stops accepting entries and flushes what is queued, retrying until
// the queue is empty or ctx expires. Entries still queued at that point are
// reported in the error.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	backoff := 50 * time.Millisecond
	for p.queue.Len() > 0 {
		if err := p.flush(ctx); err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("audit publisher closed with %d undelivered entries: %w", p.queue.Len(), ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, time.Second)
	}
	return nil
}

// Pending returns the number of queued entries.
func (p *Publisher) Pending() int {
	return p.queue.Len()
}
