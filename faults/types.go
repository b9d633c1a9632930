// Package faults defines the error taxonomy shared by the CLI, the
// orchestrator and the providers. Failures that cross a package boundary are
// classified into a small set of categories so callers can branch on the kind
// of failure without matching message text.
package faults

import "errors"

// ErrorCategory labels the kind of failure a TypedError carries.
type ErrorCategory string

const (
	ValidationError ErrorCategory = "ValidationError"
	NotFoundError   ErrorCategory = "NotFoundError"
	ConflictError   ErrorCategory = "ConflictError"
	AuthError       ErrorCategory = "AuthError"
	TransportError  ErrorCategory = "TransportError"
	InternalError   ErrorCategory = "InternalError"
)

// TypedError pairs a category with a message and an optional cause. Message
// and Cause may both be empty; Error falls back to the category name when
// neither is set.
type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		return e.Message + ": " + e.Cause.Error()
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return string(e.Category)
	}
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{Category: category, Message: message, Cause: cause}
}

// IsCategory reports whether err carries a TypedError of the given category
// anywhere in its chain. Untyped errors match no category, including
// InternalError.
func IsCategory(err error, category ErrorCategory) bool {
	typed := typedFrom(err)
	return typed != nil && typed.Category == category
}

// Category reports the typed category of err, or InternalError when err
// carries no TypedError in its chain.
func Category(err error) ErrorCategory {
	typed := typedFrom(err)
	if typed == nil {
		return InternalError
	}
	return typed.Category
}

func typedFrom(err error) *TypedError {
	if err == nil {
		return nil
	}
	var typed *TypedError
	if !errors.As(err, &typed) {
		return nil
	}
	return typed
}
