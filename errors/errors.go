// Package errors provides the application error type shared by the HTTP API,
// the CLI and the export job.
package errors

import (
	"errors"
	"fmt"
)

// Generic error codes.
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeRateLimited  = "RATE_LIMITED"

	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
)

// Form submission error codes. Each corresponds to one validation failure
// kind of the trip form.
const (
	CodeMissingField           = "MISSING_FIELD"
	CodeInvalidDistance        = "INVALID_DISTANCE"
	CodeInvalidFuel            = "INVALID_FUEL"
	CodeOccupancyLimitExceeded = "OCCUPANCY_LIMIT_EXCEEDED"
)

// Export error codes.
const (
	CodeNoRecords        = "NO_RECORDS"
	CodeExportInProgress = "EXPORT_IN_PROGRESS"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail entry.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an error with an AppError.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Internal creates an internal server error.
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(message string, details map[string]string) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return New(CodeForbidden, message)
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

// Unavailable creates a service unavailable error.
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message)
}

// RateLimited creates a rate limited error.
func RateLimited(message string) *AppError {
	return New(CodeRateLimited, message)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return Code(err) == CodeNotFound
}

// IsValidation reports whether err is a payload or form validation error.
func IsValidation(err error) bool {
	switch Code(err) {
	case CodeValidation, CodeMissingField, CodeInvalidDistance, CodeInvalidFuel, CodeOccupancyLimitExceeded:
		return true
	}
	return false
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return Code(err) == CodeUnauthorized
}

// Code returns the error code or empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
