package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates a transition was attempted from an illegal source state.
var ErrInvalidState = errors.New("invalid state transition")

// ErrAlreadyResolved indicates a reconciliation difference was already resolved.
var ErrAlreadyResolved = errors.New("difference already resolved")

// ErrSourceUnavailable indicates an external feed could not be fetched in time.
// Callers may retry.
var ErrSourceUnavailable = errors.New("external source unavailable")

// ErrInsufficientBalance indicates a withdrawal exceeds the partner's available balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrConcurrentUpdate indicates an optimistic version check failed.
var ErrConcurrentUpdate = errors.New("resource was modified concurrently")

// Validation codes surfaced to callers.
const (
	CodeRequired       = "required"
	CodeReasonTooShort = "reason_too_short"
	CodeOutOfRange     = "out_of_range"
	CodeInvalidValue   = "invalid_value"
)

// ValidationError carries a machine readable code next to the message so the
// UI can display it verbatim. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// AppError wraps infrastructure failures with a status-like code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Code returns a short machine readable code for err, for per-item results
// where no HTTP status is available.
func Code(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Code
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrConcurrentUpdate):
		return "concurrent_update"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	}
	return "internal"
}
