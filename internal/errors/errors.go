package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports a match on Code, so any AppError carrying the same code as one
// of the Err* sentinels satisfies errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the first AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Is forwards to the standard library so callers need only this package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeDegenerateInput  = "DEGENERATE_INPUT"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidArgument  = New(CodeInvalidArgument, "invalid argument")
	ErrInsufficientData = New(CodeInsufficientData, "insufficient data")
	ErrDegenerateInput  = New(CodeDegenerateInput, "degenerate input")
	ErrNotFound         = New(CodeNotFound, "not found")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidArgument(format string, args ...interface{}) *AppError {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func InsufficientData(format string, args ...interface{}) *AppError {
	return New(CodeInsufficientData, fmt.Sprintf(format, args...))
}

func DegenerateInput(format string, args ...interface{}) *AppError {
	return New(CodeDegenerateInput, fmt.Sprintf(format, args...))
}
