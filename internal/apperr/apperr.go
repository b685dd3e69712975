// Package apperr defines the error kinds services report to the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrNotInHousehold = errors.New("not in household")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Error attaches a client-facing message to one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid reports a rejected request with a message safe to show the client.
func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("task").
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

// Conflict reports a request that lost to concurrent or existing state.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text for err, falling back to the text
// of its kind when err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for _, kind := range []error{ErrInvalidRequest, ErrNotFound, ErrConflict, ErrNotInHousehold, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal error"
}
