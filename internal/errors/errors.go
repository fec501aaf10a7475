package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeMissingToken indicates a token-bearing view was entered without a token.
	ErrCodeMissingToken ErrorCode = "missing_token"
	// ErrCodeInvalidToken indicates the backend rejected a token as invalid or expired.
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeNetwork indicates a call to the backend API failed in transit or with a 5xx.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeValidation indicates invalid input data, detected locally or by the backend.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeRender indicates a view failed to render.
	ErrCodeRender ErrorCode = "render"
	// ErrCodeUnauthorized indicates rejected credentials.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., e-mail already registered).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeUnavailable indicates a dependency (session store, database) is temporarily unreachable.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	Code ErrorCode
	// Message is safe to show to the user.
	Message string
	Cause   error
	// Field is the form field that caused the error (validation only).
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError with the same code, so sentinel comparisons work:
// errors.Is(err, &AppError{Code: ErrCodeMissingToken}).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newErr(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// MissingToken creates a MissingToken error.
func MissingToken(message string) *AppError { return newErr(ErrCodeMissingToken, message) }

// InvalidToken creates an InvalidOrExpiredToken error.
func InvalidToken(message string) *AppError { return newErr(ErrCodeInvalidToken, message) }

// Network wraps a transport failure talking to an upstream service.
func Network(err error, message string) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: message, Cause: err}
}

// Render wraps a template execution failure.
func Render(err error, view string) *AppError {
	return &AppError{Code: ErrCodeRender, Message: "failed to render " + view, Cause: err}
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(message string) *AppError { return newErr(ErrCodeUnauthorized, message) }

// Unavailable wraps a transient dependency failure.
func Unavailable(err error, message string) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message, Cause: err}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return newErr(ErrCodeNotFound, message) }

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return newErr(ErrCodeConflict, message) }

// Validation creates a new Validation error.
func Validation(message string) *AppError { return newErr(ErrCodeValidation, message) }

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newErr(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newErr(ErrCodeInternal, message) }

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsMissingToken checks if an error is a MissingToken error.
func IsMissingToken(err error) bool { return isCode(err, ErrCodeMissingToken) }

// IsInvalidToken checks if an error is an InvalidOrExpiredToken error.
func IsInvalidToken(err error) bool { return isCode(err, ErrCodeInvalidToken) }

// IsNetwork checks if an error is a NetworkFailure.
func IsNetwork(err error) bool { return isCode(err, ErrCodeNetwork) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsRender checks if an error is a RenderFailure.
func IsRender(err error) bool { return isCode(err, ErrCodeRender) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsUnavailable checks if an error is an Unavailable error.
func IsUnavailable(err error) bool { return isCode(err, ErrCodeUnavailable) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the message to show for err. Non-AppErrors get fallback.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
