// Package apperr defines the closed set of error kinds the API can surface
// and their HTTP status mapping. Business code classifies failures by kind;
// the boundary never inspects messages or ad hoc fields.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindAccountLocked
	KindForbidden
	KindNotFound
	KindInvalidState
)

// Error is a kinded application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a kinded error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Auth(message string) *Error          { return New(KindAuth, message) }
func AccountLocked(message string) *Error { return New(KindAccountLocked, message) }
func Forbidden(message string) *Error     { return New(KindForbidden, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func InvalidState(message string) *Error  { return New(KindInvalidState, message) }
func Internal(err error) *Error           { return Wrap(KindInternal, "internal error", err) }

// KindOf extracts the kind from an error chain. Unclassified errors are
// internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidState:
		return fiber.StatusBadRequest
	case KindAuth, KindAccountLocked:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
