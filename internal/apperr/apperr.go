// Package apperr provides the structured error type used across the
// pipeline.
//
// It defines a single AppError with a Code (a standardized, stable
// string), a human-readable Message, and an optional wrapped cause. The
// pipeline's failure taxonomy (decode, validation, transient
// enrichment/store errors, timeouts, fatal startup errors) is modeled as
// a closed set of Code constants in package pipeline; this package only
// supplies the mechanics (construction, wrapping, retriability).
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-comparable error identifier.
type Code string

// AppError is the error type returned by every pipeline stage.
type AppError struct {
	Code    Code
	Message string
	Err     error

	// Retriable marks whether the operation that produced this error is
	// safe to retry under the retry combinator. Non-retriable errors
	// (decode, validation) go straight to the dead-letter branch.
	Retriable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New constructs an AppError with the given code and message, optionally
// wrapping a cause.
func New(code Code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause}
}

// NewRetriable constructs an AppError marked safe for the retry
// combinator.
func NewRetriable(code Code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause, Retriable: true}
}

// Wrap attaches a message to an existing error without discarding it,
// inferring the code from err if it is already an *AppError.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return &AppError{Code: ae.Code, Message: message, Err: err, Retriable: ae.Retriable}
	}
	return &AppError{Code: CodeUnknown, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or CodeUnknown if err is not (or
// does not wrap) an *AppError.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsRetriable reports whether err is an *AppError marked retriable.
func IsRetriable(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Retriable
	}
	return false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeUnknown is used for errors that did not originate as an AppError.
const CodeUnknown Code = "UNKNOWN"
