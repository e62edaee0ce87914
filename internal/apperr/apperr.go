// Package apperr defines the error taxonomy shared by the authentication
// services and the HTTP layer. Each kind carries a fixed status code and a
// generic client-facing message; the wrapped cause stays server-side.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is an unexpected persistence, transaction, or upstream
	// failure. The zero value, so unclassified errors map here.
	KindInternal Kind = iota
	// KindConflict is a duplicate-resource error (e.g. email already taken).
	KindConflict
	// KindUnauthorized covers bad credentials, missing/invalid/expired
	// sessions, and invalid OAuth state. Deliberately generic: the message
	// never reveals which check failed.
	KindUnauthorized
	// KindValidation is malformed client input.
	KindValidation
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the generic client-facing message for the kind.
func (k Kind) Message() string {
	switch k {
	case KindConflict:
		return "Resource already exists"
	case KindUnauthorized:
		return "Unauthorized"
	case KindValidation:
		return "Invalid request"
	default:
		return "Internal server error"
	}
}

// Error is an application error: a kind, an optional wrapped cause, and
// optional structured field details for validation failures.
type Error struct {
	Kind    Kind
	Fields  map[string]string
	wrapped error
}

// New creates an error of the given kind wrapping cause. cause may be nil.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, wrapped: cause}
}

// Conflict returns a KindConflict error wrapping cause.
func Conflict(cause error) *Error { return New(KindConflict, cause) }

// Unauthorized returns a KindUnauthorized error wrapping cause.
func Unauthorized(cause error) *Error { return New(KindUnauthorized, cause) }

// Internal returns a KindInternal error wrapping cause.
func Internal(cause error) *Error { return New(KindInternal, cause) }

// Validation returns a KindValidation error with per-field details.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Kind.Message(), e.wrapped)
	}
	return e.Kind.Message()
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is makes errors.Is(err, apperr.Unauthorized(nil)) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
