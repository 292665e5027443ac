package core

import (
	"errors"
	"fmt"
)

// Kind classifies a business error for transport-level mapping. Each kind
// corresponds to exactly one HTTP status in the web adapter.
type Kind string

const (
	KindValidation    Kind = "validation"    // malformed or missing input
	KindAuthorization Kind = "authorization" // role or ownership mismatch
	KindInvalidState  Kind = "invalid_state" // mutation outside pending, or disallowed transition
	KindNotFound      Kind = "not_found"     // unknown id or branch
	KindConflict      Kind = "conflict"      // order-number collision after retries
)

// Error is a kind-tagged business error. Message is safe to show to clients;
// the wrapped cause (if any) is internal detail surfaced only in dev mode.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the Kind of err if it is (or wraps) a *Error, or "" otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// Authorizationf builds an authorization error.
func Authorizationf(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

// InvalidStatef builds an invalid-state error.
func InvalidStatef(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// wrapf attaches an internal cause to a kind-tagged error.
func wrapf(k Kind, cause error, format string, args ...any) *Error {
	e := newError(k, format, args...)
	e.cause = cause
	return e
}
