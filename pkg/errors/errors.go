// Package errors defines the load-failure taxonomy shared by resolvers and the
// loader. Callers match failures with errors.Is against the sentinels or with
// the IsX helpers; the structured Error carries the unit path that failed.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound indicates that a path did not resolve to a unit
	ErrModuleNotFound = errors.New("module not found")

	// ErrMissingDefaultExport indicates that a module resolved but exposes no
	// default export to instantiate
	ErrMissingDefaultExport = errors.New("missing default export")

	// ErrInvalidRunnerShape indicates that an instance does not satisfy the
	// configure/run contract
	ErrInvalidRunnerShape = errors.New("invalid runner shape")
)

// Machine-readable codes carried by Error.
const (
	CodeModuleNotFound       = "MODULE_NOT_FOUND"
	CodeMissingDefaultExport = "MISSING_DEFAULT_EXPORT"
	CodeInvalidRunnerShape   = "INVALID_RUNNER_SHAPE"
)

// Error represents a structured load failure
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Path is the unit path the failure refers to
	Path string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps codes onto the package sentinels so errors.Is works on wrapped
// values without giving up the Err field for causes.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrModuleNotFound:
		return e.Code == CodeModuleNotFound
	case ErrMissingDefaultExport:
		return e.Code == CodeMissingDefaultExport
	case ErrInvalidRunnerShape:
		return e.Code == CodeInvalidRunnerShape
	}
	return false
}

// NewError creates a new structured error
func NewError(code, path, message string, err error) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// NewModuleNotFound reports that path did not resolve to a unit. cause may be
// nil when resolution simply found nothing.
func NewModuleNotFound(path string, cause error) *Error {
	return NewError(CodeModuleNotFound, path, "no unit resolves to this path", cause)
}

// NewMissingDefaultExport reports that the module at path has no default export.
func NewMissingDefaultExport(path string) *Error {
	return NewError(CodeMissingDefaultExport, path, "module has no default export", nil)
}

// NewInvalidRunnerShape reports that the instance loaded from path is missing
// part of the contract, e.g. "configure" or "run".
func NewInvalidRunnerShape(path, missing string) *Error {
	return NewError(CodeInvalidRunnerShape, path, fmt.Sprintf("default export does not satisfy the runner contract: missing %s", missing), nil)
}

// IsModuleNotFound checks if an error is a module not found error
func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound)
}

// IsMissingDefaultExport checks if an error is a missing default export error
func IsMissingDefaultExport(err error) bool {
	return errors.Is(err, ErrMissingDefaultExport)
}

// IsInvalidRunnerShape checks if an error is an invalid runner shape error
func IsInvalidRunnerShape(err error) bool {
	return errors.Is(err, ErrInvalidRunnerShape)
}

// AsError extracts the structured error from err's chain, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
