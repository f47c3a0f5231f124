package kafka

import (
	"errors"

	"tracknow/internal/apperr"
)

// PermanentError marks a message that will never succeed on redelivery.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent returns a permanent error.
func Permanent(err error) error {
	return PermanentError{Err: err}
}

// IsPermanent reports whether err should be skipped rather than retried.
// Domain rejections (unknown order, illegal transition) count as permanent.
func IsPermanent(err error) bool {
	var p PermanentError
	if errors.As(err, &p) {
		return true
	}
	return apperr.Kind(err) != nil
}
