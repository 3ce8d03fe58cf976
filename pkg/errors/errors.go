// Package errors provides structured error types for the sbp pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline stages and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes correspond to the error kinds a pipeline stage may abort with:
// bad input, missing graph elements, counter overflow, a DAG invariant
// violated, an internal invariant broken, I/O failure, or cooperative
// cancellation.
//
// # Usage
//
//	err := errors.New(errors.CodeBadInput, "k must be >= 2, got %d", k)
//	if errors.Is(err, errors.CodeBadInput) {
//	    // handle
//	}
//
//	err := errors.Wrap(errors.CodeIOError, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the kinds enumerated by the pipeline's error model.
const (
	CodeBadInput              Code = "BAD_INPUT"
	CodeMissingVertex         Code = "MISSING_VERTEX"
	CodeMissingEdge           Code = "MISSING_EDGE"
	CodeOverflow              Code = "OVERFLOW"
	CodeNotADAG               Code = "NOT_A_DAG"
	CodeInternalInconsistency Code = "INTERNAL_INCONSISTENCY"
	CodeIOError               Code = "IO_ERROR"
	CodeCancelled             Code = "CANCELLED"
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

// ExitCode maps an error's code to the process exit code the CLI reports.
// A nil error, or one without a recognised code, exits 1.
func ExitCode(err error) int {
	switch GetCode(err) {
	case CodeBadInput:
		return 2
	case CodeMissingVertex, CodeMissingEdge:
		return 3
	case CodeOverflow:
		return 4
	case CodeNotADAG:
		return 5
	case CodeInternalInconsistency:
		return 6
	case CodeIOError:
		return 7
	case CodeCancelled:
		return 130
	default:
		return 1
	}
}
