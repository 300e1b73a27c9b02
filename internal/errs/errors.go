// Package errs defines the error taxonomy shared by the pipeline core.
//
// Every error raised by the compiler, executor, or condition evaluator is an
// *Error carrying a Code. Callers classify errors with Is, which sees through
// fmt.Errorf wrapping.
package errs

import (
	"errors"
	"fmt"
)

// Code categorizes pipeline errors.
type Code string

const (
	// CodeArgument indicates an argument could not be bound at compile time.
	CodeArgument Code = "ARGUMENT"

	// CodeType indicates a value could not be parsed or coerced.
	CodeType Code = "TYPE"

	// CodeComparison indicates two cells have no defined ordering.
	CodeComparison Code = "COMPARISON"

	// CodeMatch indicates an invalid needle/pattern combination or an
	// unrepresentable path.
	CodeMatch Code = "MATCH"

	// CodeExecution indicates a spawned unit terminated abnormally.
	CodeExecution Code = "EXECUTION"

	// CodeGeneric is the catch-all.
	CodeGeneric Code = "GENERIC"
)

// Error is the error type raised by the pipeline core.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeGeneric for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneric
}

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Argument creates an argument error.
func Argument(format string, args ...any) *Error {
	return newf(CodeArgument, format, args...)
}

// Type creates a type error.
func Type(format string, args ...any) *Error {
	return newf(CodeType, format, args...)
}

// Comparison creates a comparison error.
func Comparison(format string, args ...any) *Error {
	return newf(CodeComparison, format, args...)
}

// Match creates a match error.
func Match(format string, args ...any) *Error {
	return newf(CodeMatch, format, args...)
}

// Execution creates an execution error.
func Execution(format string, args ...any) *Error {
	return newf(CodeExecution, format, args...)
}

// Generic creates a generic error.
func Generic(format string, args ...any) *Error {
	return newf(CodeGeneric, format, args...)
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
