package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business errors so the transport layer can map them
// to HTTP status codes without inspecting message text.
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "not_found"
	ErrConflict     ErrorKind = "conflict"
	ErrInvalidState ErrorKind = "invalid_state"
	ErrForbidden    ErrorKind = "forbidden"
	ErrValidation   ErrorKind = "validation"
	ErrUnexpected   ErrorKind = "unexpected"
)

// Error is the error type returned by services and repositories for
// expected business outcomes. Infrastructure failures are wrapped with
// ErrUnexpected so storage detail never leaks to callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Unexpected wraps an infrastructure error with a caller-safe message.
func Unexpected(err error, format string, args ...any) *Error {
	return &Error{Kind: ErrUnexpected, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or ErrUnexpected for any error that is
// not a *domain.Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrUnexpected
}

// MessageOf returns the human-readable message for err. Unexpected errors
// get a generic message so internal detail is not exposed.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != ErrUnexpected {
		return de.Message
	}
	return "an unexpected error occurred"
}
