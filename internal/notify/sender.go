//go:generate mockgen -source=sender.go -destination=notify_mocks_test.go -package=notify_test

package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"tracknow/internal/domain"
)

// Message is a single notification addressed to one user.
type Message struct {
	OrderID int64
	Type    domain.NotificationType
	User    domain.User
	Subject string
	Body    string
}

// Sender delivers a message over one channel (email, push).
// Implementations return nil when the user has no address for the channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}

// isRetryable reports whether a failed send may succeed on a later attempt.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
