package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"neokyc/pkg/requestcontext"
)

// DefaultRecentLimit is the size of the admin audit view.
const DefaultRecentLimit = 10

// Publisher captures structured audit events. Events are appended to the
// store synchronously; a configured sink receives them from a background
// worker so a slow broker never blocks a request.
type Publisher struct {
	store  Store
	logger *slog.Logger

	sink   Sink
	worker *Worker
	inbox  chan Event
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for sink and drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSink fans events out to sink through a buffer of the given size.
func WithSink(sink Sink, buffer int) Option {
	return func(p *Publisher) {
		if buffer < 1 {
			buffer = 1
		}
		p.sink = sink
		p.inbox = make(chan Event, buffer)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.sink != nil {
		p.done = make(chan struct{})
		p.worker = NewWorker(p.sink, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = p.worker.Run(context.Background())
		}()
	}
	return p
}

// Emit enriches the event from the request context and persists it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	p.forward(ctx, event)
	return nil
}

func (p *Publisher) forward(ctx context.Context, event Event) {
	if p.sink == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit sink buffer full, dropping event",
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
	}
}

// SinkHealth reports whether the configured sink is accepting events. It is
// always healthy without a sink.
func (p *Publisher) SinkHealth(ctx context.Context) error {
	if p.worker == nil {
		return nil
	}
	return p.worker.Health(ctx)
}

// Recent lists the newest events for the admin view.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return p.store.ListRecent(ctx, limit)
}

// Close stops accepting sink events and waits for the worker to drain, up
// to timeout.
func (p *Publisher) Close(timeout time.Duration) {
	if p.sink == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(timeout):
		p.logger.Warn("audit sink did not drain before timeout")
	}
}
