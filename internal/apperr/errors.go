// Package apperr defines the structured failures returned by the domain
// services. Every failure carries a Kind the transport maps to a status
// code, plus a human readable detail.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindOptimisticLock    Kind = "OPTIMISTIC_LOCK_CONFLICT"
	KindConflict          Kind = "CONFLICT"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalid           Kind = "INVALID"
	KindInternal          Kind = "INTERNAL"
)

var titles = map[Kind]string{
	KindValidation:        "Validation error",
	KindInvalidTransition: "Invalid transition",
	KindOptimisticLock:    "Optimistic lock conflict",
	KindConflict:          "Conflict",
	KindNotFound:          "Not found",
	KindInvalid:           "Invalid",
	KindInternal:          "Internal error",
}

// Error is the failure type shared by all services.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Title is the short, kind-level summary used in problem responses.
func (e *Error) Title() string { return titles[e.Kind] }

// New builds an Error with a formatted detail.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// Validation, NotFound, Conflict, ... are shorthands for New.
func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error   { return New(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error   { return New(KindConflict, format, args...) }
func Invalid(format string, args ...any) *Error    { return New(KindInvalid, format, args...) }
func InvalidTransition(format string, args ...any) *Error {
	return New(KindInvalidTransition, format, args...)
}
func OptimisticLock(format string, args ...any) *Error {
	return New(KindOptimisticLock, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindOptimisticLock, KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
