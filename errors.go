package mastermind

import (
	"errors"
	"fmt"

	"github.com/mastermind-ci/mastermind/exitcodes"
)

// UsageError represents an unsatisfiable command line (exit code 4).
// Examples include contradictory flags or patterns matching nothing.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *UsageError) Unwrap() error {
	return e.Err
}

// NewUsageError creates a new UsageError
func NewUsageError(err error) *UsageError {
	return &UsageError{Err: err}
}

// IsUsageError checks if the error is or wraps a UsageError
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return err != nil && errors.As(err, &usageErr)
}

// InternalError represents an operational failure of the driver itself
// (exit code 3). Examples include clone failures or a panicking stage.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *InternalError) Unwrap() error {
	return e.Err
}

// NewInternalError creates a new InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{Err: err}
}

// IsInternalError checks if the error is or wraps an InternalError
func IsInternalError(err error) bool {
	var internalErr *InternalError
	return err != nil && errors.As(err, &internalErr)
}

// ResultError carries an aggregated exit code with no dedicated error
// type, e.g. interrupted or no-tests-collected runs.
type ResultError struct {
	Code    int
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("execution finished with exit code %d: %s", e.Code, e.Message)
}

// TestFailureError represents test runs that completed with failures
// (exit code 1).
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// ErrorExitCode maps a driver error onto the exit code it produces, so
// recorded results and the process exit code always agree.
func ErrorExitCode(err error) int {
	var resultErr *ResultError
	switch {
	case err == nil:
		return exitcodes.Success
	case IsUsageError(err):
		return exitcodes.UsageError
	case IsTestFailureError(err):
		return exitcodes.TestsFailed
	case errors.As(err, &resultErr):
		return resultErr.Code
	default:
		return exitcodes.InternalError
	}
}
