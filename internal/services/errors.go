package services

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a business-rule rejection so callers can pick retry
// behavior and a guidance message without parsing error text.
type Kind string

// Error kinds
const (
	KindValidation         Kind = "VALIDATION"
	KindRateNotConfigured  Kind = "RATE_NOT_CONFIGURED"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindTailorInactive     Kind = "TAILOR_INACTIVE"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidBatchMember Kind = "INVALID_BATCH_MEMBER"
	KindPermissionDenied   Kind = "PERMISSION_DENIED"
	// KindUnavailable marks infrastructure faults (database, queue). These are
	// the only errors a caller should treat as retryable-later rather than a
	// business rejection.
	KindUnavailable Kind = "UNAVAILABLE"
)

// Error is a business error with a display-ready message. A failed operation
// leaves state unchanged; none of these are fatal to the process.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a business error with the given kind and message
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and display message to an underlying cause
func WrapError(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err; unrecognized errors are classified as
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}
