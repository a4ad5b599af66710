// Package errors provides structured error types for the cyclesolver engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (puzzle definitions, targets)
//   - UNREACHABLE_*: Targets proven impossible by orbit/parity analysis
//   - RESOURCE_*: Memory or capacity limits (non-fatal, pruning degrades)
//   - WORKER_*: Internal invariant violations inside one search worker
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPuzzle, "move %q permutes out of range", name)
//	if errors.Is(err, errors.ErrCodeInvalidPuzzle) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTableMismatch, origErr, "loading table %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors - fatal, rejected before any search starts.
	ErrCodeInvalidPuzzle Code = "INVALID_PUZZLE"
	ErrCodeInvalidTarget Code = "INVALID_TARGET"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Terminal search outcomes.
	ErrCodeUnreachableTarget Code = "UNREACHABLE_TARGET"
	ErrCodeAborted           Code = "ABORTED"

	// Resource errors - non-fatal, search continues with degraded pruning.
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Worker errors - fatal for one search instance only.
	ErrCodeWorkerFailure Code = "WORKER_FAILURE"

	// Table persistence errors - force regeneration, never partial reuse.
	ErrCodeTableMismatch Code = "TABLE_MISMATCH"

	// Archive and cache errors.
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStorage  Code = "STORAGE_ERROR"

	// Internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsTerminal reports whether err is a terminal, non-retriable search outcome.
// Unreachable targets and explicit aborts must never be retried; resource
// exhaustion and cache misses are recoverable.
func IsTerminal(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnreachableTarget, ErrCodeAborted, ErrCodeInvalidPuzzle, ErrCodeInvalidTarget:
		return true
	}
	return false
}
