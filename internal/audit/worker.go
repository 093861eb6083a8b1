package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"neokyc/pkg/platform/circuit"
)

const publishTimeout = 5 * time.Second

// ErrSinkDegraded is reported by health checks while the sink circuit is open.
var ErrSinkDegraded = errors.New("audit sink degraded")

// Worker consumes audit events from a channel and forwards them to a sink.
// Publish failures are logged; the store already holds the event. While the
// breaker is open, per-event failures are not logged.
type Worker struct {
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	breaker *circuit.Breaker
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{
		sink:    sink,
		inbox:   inbox,
		logger:  logger,
		breaker: circuit.New("audit-sink"),
	}
}

// Run forwards events until the inbox is closed or ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.publish(ctx, event)
		}
	}
}

// Health returns ErrSinkDegraded while the breaker is open.
func (w *Worker) Health(context.Context) error {
	if w.breaker.IsOpen() {
		return ErrSinkDegraded
	}
	return nil
}

func (w *Worker) publish(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := w.sink.Publish(ctx, event)
	if err == nil {
		if _, change := w.breaker.RecordSuccess(); change.Closed && w.logger != nil {
			w.logger.InfoContext(ctx, "audit sink recovered", "breaker", w.breaker.Name())
		}
		return
	}
	open, change := w.breaker.RecordFailure()
	if w.logger == nil {
		return
	}
	switch {
	case change.Opened:
		w.logger.WarnContext(ctx, "audit sink circuit opened",
			"breaker", w.breaker.Name(),
			"error", err,
		)
	case !open:
		w.logger.ErrorContext(ctx, "failed to publish audit event",
			"action", string(event.Action),
			"event_id", event.ID.String(),
			"error", err,
		)
	}
}
