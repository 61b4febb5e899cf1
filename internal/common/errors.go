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

// Common application errors, one per failure class in the pipeline taxonomy.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrTransport       = errors.New("capability transport error")
	ErrSchemaViolation = errors.New("response violates schema")
	ErrEmptyResponse   = errors.New("empty capability response")
	ErrInternal        = errors.New("internal error")
)

// Error constructors
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

// IsRecoverable reports whether an extraction error is a degraded-recoverable
// condition the orchestrator may absorb via fallback, as opposed to a
// programming error that must surface at the pipeline boundary.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrSchemaViolation) ||
		errors.Is(err, ErrEmptyResponse)
}
