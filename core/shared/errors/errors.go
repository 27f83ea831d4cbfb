package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Domain errors
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeValidationError ErrorCode = "VALIDATION_ERROR"

	// Configuration errors
	ErrCodeConfigError          ErrorCode = "CONFIG_ERROR"
	ErrCodeConnectionNotFound   ErrorCode = "CONNECTION_NOT_FOUND"
	ErrCodeInvalidConnection    ErrorCode = "INVALID_CONNECTION"
	ErrCodeTaskNotFound         ErrorCode = "TASK_NOT_FOUND"
	ErrCodeUnsupportedConnector ErrorCode = "UNSUPPORTED_CONNECTOR"

	// Execution errors
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
	ErrCodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes reported by the CLI
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitConfigError     = 2
	ExitExecutionFailed = 3
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapError wraps an existing error with an error code and message
func WrapError(code ErrorCode, message string, err error) *AppError {
	return NewAppError(code, message, err)
}

// ExitCode maps an error to the process exit code the CLI should use
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ExitFailure
	}
	switch appErr.Code {
	case ErrCodeConfigError, ErrCodeValidationError, ErrCodeTaskNotFound,
		ErrCodeConnectionNotFound, ErrCodeInvalidConnection, ErrCodeUnsupportedConnector:
		return ExitConfigError
	case ErrCodeExecutionFailed:
		return ExitExecutionFailed
	default:
		return ExitFailure
	}
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeNotFound || appErr.Code == ErrCodeConnectionNotFound || appErr.Code == ErrCodeTaskNotFound
	}
	return false
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeValidationError || appErr.Code == ErrCodeInvalidConnection
	}
	return false
}
