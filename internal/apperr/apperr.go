// Package apperr defines the stable error kinds surfaced by the core
// services. Handlers map kinds to HTTP statuses; wrapped causes stay
// server-side.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure
type Kind int

const (
	// Unauthenticated covers missing/invalid/expired tokens and
	// inactive or unknown principals. Reasons are deliberately
	// collapsed into one kind.
	Unauthenticated Kind = iota
	// Forbidden means a valid principal that does not own the resource.
	Forbidden
	// NotFound means no resource with the given id exists.
	NotFound
	// InvalidState means the operation is illegal for the current
	// lifecycle state.
	InvalidState
	// Validation means malformed or rejected input.
	Validation
	// Dependency means the store or an external call failed.
	Dependency
	// Internal is everything else.
	Internal
)

// Error is a classified failure with a caller-safe message
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error with a cause
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind of err, defaulting to Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error kind onto an HTTP status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidState, Validation:
		return http.StatusBadRequest
	case Dependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to echo to the caller.
// Unclassified errors collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
