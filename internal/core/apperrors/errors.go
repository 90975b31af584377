package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed arguments to a pure computation
	// (unusable timestamps, negative durations).
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration marks contradictory or missing configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrConflict marks an upsert that would rebind a unique key to a
	// different owner. It always indicates a logic bug and is never retried.
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// GatewayError wraps a failure of a remote collaborator (LLM, calendar,
// time tracking, source API).
type GatewayError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *GatewayError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("%s: %s gateway error: %v", e.Op, kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable wraps err as a retryable gateway failure.
func Retryable(op string, err error) error {
	return &GatewayError{Op: op, Retryable: true, Err: err}
}

// Fatal wraps err as a gateway failure that must not be retried automatically.
func Fatal(op string, err error) error {
	return &GatewayError{Op: op, Retryable: false, Err: err}
}

// IsRetryable reports whether err carries a retryable GatewayError.
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable
	}
	return false
}

// IsGateway reports whether err carries any GatewayError.
func IsGateway(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}

// Invalid wraps a formatted message with ErrInvalidInput.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Misconfigured wraps a formatted message with ErrConfiguration.
func Misconfigured(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
