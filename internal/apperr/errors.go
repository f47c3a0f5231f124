package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden indicates that the actor is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidToken is returned when a delivery-proof token is missing or does not match.
var ErrInvalidToken = errors.New("invalid delivery token")

// Kind returns the sentinel err wraps, or nil when err carries none of them.
func Kind(err error) error {
	for _, k := range [...]error{ErrInvalid, ErrConflict, ErrNotFound, ErrForbidden, ErrInvalidToken} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
