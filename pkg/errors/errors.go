// Package errors provides structured error types for the relmap application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and preview server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad references, bad options)
//   - NOT_FOUND_*: Resource not found
//   - LAYOUT_*: Layout engine conditions
//   - STORE_*: Entry store failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidReference, "relationship cites unknown entry %d", id)
//	if errors.Is(err, errors.ErrCodeInvalidReference) {
//	    // Handle the broken reference
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "load entries from %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeInvalidMode      Code = "INVALID_MODE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeEntryNotFound Code = "ENTRY_NOT_FOUND"
	ErrCodeNodeNotFound  Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Layout engine conditions
	ErrCodeLayoutDivergence Code = "LAYOUT_DIVERGENCE"

	// Render/export errors
	ErrCodeExportEmpty Code = "EXPORT_EMPTY"

	// Entry store errors
	ErrCodeStore Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// DivergenceError reports a force simulation that hit its iteration cap
// before the per-step displacement dropped below epsilon. The computed
// layout is still usable; callers may warn the user.
type DivergenceError struct {
	Iterations   int     // Iterations executed before giving up
	Displacement float64 // Maximum per-node displacement at the last step
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	return fmt.Sprintf("layout did not converge after %d iterations (last displacement %.4f)", e.Iterations, e.Displacement)
}

// Code returns the error code for this error type.
func (e *DivergenceError) Code() Code {
	return ErrCodeLayoutDivergence
}

// AsDivergence reports whether err is (or wraps) a DivergenceError,
// assigning it to target on a match. Callers use it to downgrade a
// divergence to a warning while keeping the best-effort layout.
func AsDivergence(err error, target **DivergenceError) bool {
	return errors.As(err, target)
}
