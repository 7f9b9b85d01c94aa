package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Sentinels for the failure classes a run distinguishes. ErrStartup aborts
// before any chunk is processed; ErrProvider is retried and then degraded to
// an unstructured row; ErrWrite is fatal once the result set is built.
var (
	ErrStartup  = errors.New("startup error")
	ErrProvider = errors.New("provider error")
	ErrWrite    = errors.New("write error")
)

// NewAppError constructs an AppError with the given code, message, and cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
