package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAccessForbidden  = errors.New("access forbidden")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUpstream         = errors.New("upstream unavailable")
)

var kinds = []error{
	ErrNotFound,
	ErrAccessForbidden,
	ErrPermissionDenied,
	ErrValidation,
	ErrConflict,
	ErrUnauthorized,
	ErrUpstream,
}

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, nil, format, args...)
}

func AccessForbidden(format string, args ...any) error {
	return newError(ErrAccessForbidden, nil, format, args...)
}

func PermissionDenied(format string, args ...any) error {
	return newError(ErrPermissionDenied, nil, format, args...)
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, nil, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(ErrConflict, nil, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, nil, format, args...)
}

func Upstream(cause error, format string, args ...any) error {
	return newError(ErrUpstream, cause, format, args...)
}

// KindOf returns the kind sentinel err matches, or nil for unclassified errors.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the client-facing message of a classified error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}
	return "internal error"
}
