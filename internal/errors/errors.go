package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a result mismatch between algorithms.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorWorker   = 5   // Indicates that a concurrent worker failed.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// Error kinds shared by every layer. Typed errors below match them through
// errors.Is so callers never need to know the concrete type.
var (
	// ErrInvalidRange reports a range whose low bound exceeds its high bound,
	// or a negative bound.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidArgument reports an invalid non-range argument such as jobs = 0.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrWorkerFailure reports that a concurrent worker terminated abnormally.
	ErrWorkerFailure = errors.New("worker failure")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError encapsulates a counting error while preserving the
// original cause.
type CalculationError struct {
	// Cause is the underlying error that triggered this calculation error.
	Cause error
}

// Error returns the error message from the underlying cause.
func (e CalculationError) Error() string { return e.Cause.Error() }

// Unwrap returns the original wrapped error.
func (e CalculationError) Unwrap() error { return e.Cause }

// TimeoutError represents a calculation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// Is reports TimeoutError as a context deadline so exit-code mapping stays uniform.
func (e TimeoutError) Is(target error) bool { return target == context.DeadlineExceeded }

// RangeError describes a rejected [Low, High] interval.
type RangeError struct {
	Low, High int64
	// Reason is a short human-readable explanation.
	Reason string
}

// Error returns a formatted message describing the rejected range.
func (e RangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d]: %s", e.Low, e.High, e.Reason)
}

// Is matches ErrInvalidRange.
func (e RangeError) Is(target error) bool { return target == ErrInvalidRange }

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
// It matches ErrInvalidArgument.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// Is matches ErrInvalidArgument.
func (e ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// PanicError carries a value recovered from a panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the recovered panic value.
func (e PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// WorkerError identifies the sub-range whose worker failed.
type WorkerError struct {
	// Index is the position of the sub-range in its partition plan.
	Index int
	// Low and High are the inclusive bounds assigned to the worker.
	Low, High uint64
	// Cause is what the worker returned or the recovered panic.
	Cause error
}

// Error returns a message naming the failing sub-range.
func (e WorkerError) Error() string {
	return fmt.Sprintf("worker %d [%d, %d]: %v", e.Index, e.Low, e.High, e.Cause)
}

// Unwrap returns the worker's cause.
func (e WorkerError) Unwrap() error { return e.Cause }

// Is matches ErrWorkerFailure.
func (e WorkerError) Is(target error) bool { return target == ErrWorkerFailure }

// AggregateError collects every worker failure observed at a join barrier.
type AggregateError struct {
	Failures []WorkerError
	// Partial is the sum of the successful sub-ranges. It is only meaningful
	// under a best-effort policy.
	Partial uint64
}

// Error summarizes the failures, naming the first failing sub-range.
func (e *AggregateError) Error() string {
	switch len(e.Failures) {
	case 0:
		return "no worker failures"
	case 1:
		return e.Failures[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d workers failed: ", len(e.Failures))
	for i, f := range e.Failures {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i := range e.Failures {
		errs[i] = e.Failures[i]
	}
	return errs
}

// MemoryError represents a memory limit exceeded condition. It captures the
// requested, available, and limit memory values for diagnostic purposes.
type MemoryError struct {
	// Requested is the number of bytes the operation needed.
	Requested uint64
	// Available is the number of bytes currently available.
	Available uint64
	// Limit is the configured memory limit in bytes.
	Limit uint64
}

// Error returns a formatted message describing the memory error.
func (e MemoryError) Error() string {
	return fmt.Sprintf("memory error: requested %d bytes, available %d bytes (limit: %d)", e.Requested, e.Available, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
