package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure so handlers can map it to an
// HTTP status and clients can branch on a stable code.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization_error"
	KindCapacity      Kind = "capacity_error"
	KindState         Kind = "state_error"
)

// Error is the failure type returned by domain operations. Field is set
// for validation errors to name the offending input field.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Validationf(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func Capacity(message string) *Error {
	return &Error{Kind: KindCapacity, Message: message}
}

func Capacityf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCapacity, Message: fmt.Sprintf(format, args...)}
}

func State(message string) *Error {
	return &Error{Kind: KindState, Message: message}
}

func Statef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusCode maps err to an HTTP status. Unclassified errors are 500.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindAuthorization:
		return 403
	case KindCapacity, KindState:
		return 409
	default:
		return 500
	}
}
