// Package ferrors provides the structured error taxonomy used across the
// resolution and fetch engine.
//
// This package defines error codes and types that enable:
//   - A single vocabulary of error kinds shared by drivers, the reconciler,
//     and the lockfile codec
//   - Machine-readable codes for programmatic handling
//   - A distinguished "explained" code so a diagnostic already surfaced to
//     the user is never reported twice
//
// # Error Codes
//
// Error codes are grouped by category:
//   - input validation (INVALID_*): malformed paths, URLs, lockfile lines
//   - not found (NOT_FOUND, RESOLUTION_NOT_FOUND, CACHE_MISS)
//   - network (NETWORK_ERROR, TIMEOUT, RATE_LIMITED)
//   - driver / engine (DRIVER_ERROR, DEPENDENCY_CYCLE, EXPLAINED)
//   - internal (INTERNAL_ERROR, UNSUPPORTED)
//
// # Usage
//
//	err := ferrors.New(ferrors.ErrCodeInvalidLockfileLine, "unknown tag %q", tag)
//	if ferrors.Is(err, ferrors.ErrCodeInvalidLockfileLine) {
//	    // report the bad lockfile line
//	}
package ferrors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidPath         Code = "INVALID_PATH"
	ErrCodeInvalidURL          Code = "INVALID_URL"
	ErrCodeInvalidSourceKind   Code = "INVALID_SOURCE_KIND"
	ErrCodeInvalidLockfileLine Code = "INVALID_LOCKFILE_LINE"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeResolutionNotFound Code = "RESOLUTION_NOT_FOUND"
	ErrCodeCacheMiss        Code = "CACHE_MISS"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Driver / engine errors
	ErrCodeDriver    Code = "DRIVER_ERROR"
	ErrCodeCycle     Code = "DEPENDENCY_CYCLE"
	ErrCodeExplained Code = "EXPLAINED"

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
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err has the given error code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Explained reports whether err (or something it wraps) has already been
// communicated to the user and should not trigger a second diagnostic.
// The reconciler checks this to decide whether a failed row only sets the
// run's sticky explained-failure flag or aborts the run.
func Explained(err error) bool {
	return Is(err, ErrCodeExplained)
}

// AsExplained wraps err so that Explained reports true for it, without
// changing its original code for Is/GetCode purposes on the cause.
func AsExplained(err error) *Error {
	return &Error{Code: ErrCodeExplained, Message: err.Error(), Cause: err}
}
