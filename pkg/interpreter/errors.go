// Package interpreter provides error handling for the block program interpreter.
package interpreter

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// ErrorUnknownCommand is raised when a command block names no registered handler.
	ErrorUnknownCommand ErrorType = "UNKNOWN_COMMAND"

	// ErrorHandlerFailure wraps the first failure reported by a command handler.
	ErrorHandlerFailure ErrorType = "HANDLER_FAILURE"

	// ErrorMalformedProgram is raised when a loop block has no partner.
	ErrorMalformedProgram ErrorType = "MALFORMED_PROGRAM"

	// ErrorInvalidBlock is raised when DoCommand receives a non-command block.
	ErrorInvalidBlock ErrorType = "INVALID_BLOCK"
)

// RuntimeError represents a failed step or command.
// No RuntimeError is fatal to the Interpreter: the registry and step time stay
// usable and a new run may be started afterwards.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Command string // Command name if available
	Source  string // Handler source if available
	Cause   error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the handler's own error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
	}
}

// NewUnknownCommandError creates an unknown command error.
func NewUnknownCommandError(name string) *RuntimeError {
	err := NewRuntimeError(ErrorUnknownCommand, fmt.Sprintf("unknown command: %s", name))
	err.Command = name
	return err
}

// NewHandlerFailureError wraps a handler failure.
func NewHandlerFailureError(name, source string, cause error) *RuntimeError {
	err := NewRuntimeError(ErrorHandlerFailure, fmt.Sprintf("handler %s for %s failed", source, name))
	err.Command = name
	err.Source = source
	err.Cause = cause
	return err
}

// NewMalformedProgramError creates a malformed program error for a loop label.
func NewMalformedProgramError(label string) *RuntimeError {
	return NewRuntimeError(ErrorMalformedProgram, fmt.Sprintf("loop %s has no matching start or end", label))
}

// NewInvalidBlockError creates an invalid block error.
func NewInvalidBlockError(kind string) *RuntimeError {
	return NewRuntimeError(ErrorInvalidBlock, fmt.Sprintf("cannot execute %s block as a command", kind))
}

// ErrorTypeOf returns the ErrorType of err, or "" when err is not a RuntimeError.
func ErrorTypeOf(err error) ErrorType {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return rtErr.Type
	}
	return ""
}

// IsUnknownCommand reports whether err is an unknown command error.
func IsUnknownCommand(err error) bool {
	return ErrorTypeOf(err) == ErrorUnknownCommand
}

// IsHandlerFailure reports whether err is a handler failure.
func IsHandlerFailure(err error) bool {
	return ErrorTypeOf(err) == ErrorHandlerFailure
}
