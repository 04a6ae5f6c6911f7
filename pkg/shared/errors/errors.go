package errors

import (
	"fmt"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

// Process exit codes.
const (
	ExitCodeOK      = 0 // Every launch passed or was skipped
	ExitCodeFailure = 1 // At least one launch failed
	ExitCodeUsage   = 2 // Invalid arguments or configuration
)

// Custom error type for not implemented errors
type NotImplementedError struct {
	MethodName string
	PluginName string
}

// Implement the error interface for NotImplementedError
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %q is not implemented for %q", e.MethodName, e.PluginName)
}

// Constructor for NotImplementedError
func NewNotImplementedError(methodName, pluginName string) error {
	return &NotImplementedError{
		MethodName: methodName,
		PluginName: pluginName,
	}
}

// CommandError represents an error that ends a command, storing the exit code and any collected results.
type CommandError struct {
	ExitCode    int
	CommonError string
	Result      *shared.LaunchesResult
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a CommandError without results.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}

// NewUsageError creates a CommandError with the usage exit code.
func NewUsageError(format string, args ...interface{}) *CommandError {
	return NewCommandError(fmt.Errorf(format, args...), ExitCodeUsage)
}

// NewCommandErrorWithResult creates a CommandError carrying the launches collected so far.
func NewCommandErrorWithResult(launches shared.LaunchesResult, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result:      &launches,
	}
}
