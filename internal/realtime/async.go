package realtime

import (
	"context"
	"time"

	"tracknow/internal/logx"
)

// Async decouples publishers from a slow transport with a bounded queue and
// a single dispatcher goroutine. Events are dropped when the queue is full.
type Async struct {
	next    Notifier
	queue   chan Event
	timeout time.Duration
	dropped counter
	logger  logx.Logger
}

// NewAsync wraps next. Run must be started for events to flow.
func NewAsync(next Notifier, size int, timeout time.Duration, dropped counter, logger logx.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Async{
		next:    next,
		queue:   make(chan Event, size),
		timeout: timeout,
		dropped: dropped,
		logger:  logger,
	}
}

// Publish enqueues e without blocking.
func (a *Async) Publish(_ context.Context, e Event) {
	select {
	case a.queue <- e:
	default:
		if a.dropped != nil {
			a.dropped.Inc()
		}
		a.logger.Warn("realtime queue full, event dropped",
			logx.Int64("order_id", e.OrderID),
			logx.String("kind", string(e.Kind)),
		)
	}
}

// Run dispatches queued events until ctx is done.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-a.queue:
			a.dispatch(e)
		}
	}
}

func (a *Async) dispatch(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	a.next.Publish(ctx, e)
}
