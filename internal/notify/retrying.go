package notify

import (
	"context"
	"time"

	"tracknow/internal/logx"
)

type counter interface {
	Inc()
}

// RetryConfig describes how RetryingSender backs off.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingSender retries transient provider failures with exponential backoff.
type RetryingSender struct {
	next    Sender
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingSender returns nil when next is nil.
func NewRetryingSender(next Sender, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingSender {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RetryingSender{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Name implements Sender.
func (s *RetryingSender) Name() string { return s.next.Name() }

// Send implements Sender.
func (s *RetryingSender) Send(ctx context.Context, m Message) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.next.Send(ctx, m)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
		if s.retries != nil {
			s.retries.Inc()
		}
		s.logger.Warn("notification send retry",
			logx.String("channel", s.next.Name()),
			logx.Int64("order_id", m.OrderID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
