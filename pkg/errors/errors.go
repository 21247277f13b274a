package errors

import (
	"errors"
	"fmt"
)

// Domain error types

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates missing or malformed configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an upstream service returned an error
	ErrExternal = errors.New("external service error")

	// ErrRateLimitExceeded indicates the local request budget was exhausted
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrNotImplemented indicates a requested mode is not supported
	ErrNotImplemented = errors.New("not implemented")
)

// Workflow errors

var (
	// ErrUnexpectedMessage indicates a node received a message type it cannot handle
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrRunFailed indicates a workflow run terminated with a failure
	ErrRunFailed = errors.New("workflow run failed")
)

// NodeError attributes an error to the workflow node that produced it
type NodeError struct {
	NodeID string
	Err    error
}

// Error implements the error interface
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

// Unwrap returns the wrapped error
func (e *NodeError) Unwrap() error {
	return e.Err
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
