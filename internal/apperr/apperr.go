// Package apperr defines the service-wide error taxonomy. Every guard
// violation in the job, parts, and billing workflows surfaces as one of
// these kinds; the httpx package maps kinds to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal is the zero value: an unexpected failure.
	KindInternal Kind = iota
	// KindNotFound: entity absent or outside the caller's garage scope.
	KindNotFound
	// KindForbidden: the caller's role lacks permission for the action.
	KindForbidden
	// KindConflict: a precondition on current state is violated.
	KindConflict
	// KindValidation: malformed or out-of-range input.
	KindValidation
)

// Error carries a machine-readable code alongside the kind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(code, format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf extracts the machine-readable code from err.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "internal_error"
}
