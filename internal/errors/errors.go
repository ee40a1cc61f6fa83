package errors

import (
	"fmt"
)

// Error is the structured error type for uiground. It carries a stable
// code for programmatic handling plus a human-readable reason.
type Error struct {
	// Code is the unique error code (e.g. "ERR_201_EMBEDDER_NOT_READY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Usage, Resource, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a structured error with the given code and message. Category
// and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code string, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a structured error from an existing error, keeping its
// message. Returns nil for a nil err.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// GetCode extracts the error code, or "" if err is not a structured Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsUsage reports whether err is a caller-misuse error.
func IsUsage(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Category == CategoryUsage
	}
	return false
}
