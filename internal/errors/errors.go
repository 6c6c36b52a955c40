package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeConfigMissing indicates required configuration is absent. Fatal at startup.
	ErrCodeConfigMissing ErrorCode = "config_missing"
	// ErrCodeAuthUnavailable indicates a bearer token could not be acquired.
	ErrCodeAuthUnavailable ErrorCode = "auth_unavailable"
	// ErrCodeRequestFailed indicates an API call failed or returned a non-2xx status.
	ErrCodeRequestFailed ErrorCode = "request_failed"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation_failed"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// FailureKind refines RequestFailed by where the failure originated.
type FailureKind string

const (
	// FailureNetwork means no HTTP response was received.
	FailureNetwork FailureKind = "network"
	// FailureClient means the API answered with a 4xx status.
	FailureClient FailureKind = "client"
	// FailureServer means the API answered with a 5xx (or other non-2xx) status.
	FailureServer FailureKind = "server"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (validation only)
	Field string
	// Operation names the API flow that failed, e.g. "Failed to fetch user"
	Operation string
	// Status is the HTTP status of a failed API response; zero for network failures
	Status int
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

// Kind classifies a RequestFailed error. Other codes return an empty kind.
func (e *AppError) Kind() FailureKind {
	if e.Code != ErrCodeRequestFailed {
		return ""
	}
	switch {
	case e.Status == 0:
		return FailureNetwork
	case e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError:
		return FailureClient
	default:
		return FailureServer
	}
}

// ConfigMissing reports absent required configuration.
func ConfigMissing(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeConfigMissing,
		Message: "unable to initialise auth",
		Cause:   cause,
	}
}

// AuthUnavailable wraps a token acquisition failure.
func AuthUnavailable(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeAuthUnavailable,
		Message: "authentication unavailable",
		Cause:   cause,
	}
}

// RequestFailed creates an error for a non-2xx API response. The message is
// the operation name so it can be shown to the user as is.
func RequestFailed(operation string, status int) *AppError {
	return &AppError{
		Code:      ErrCodeRequestFailed,
		Message:   operation,
		Operation: operation,
		Status:    status,
	}
}

// RequestFailedCause creates a RequestFailed error for a transport failure.
func RequestFailedCause(operation string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeRequestFailed,
		Message:   operation,
		Operation: operation,
		Cause:     cause,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsConfigMissing checks if an error is a ConfigMissing error.
func IsConfigMissing(err error) bool {
	return isCode(err, ErrCodeConfigMissing)
}

// IsAuthUnavailable checks if an error is an AuthUnavailable error.
func IsAuthUnavailable(err error) bool {
	return isCode(err, ErrCodeAuthUnavailable)
}

// IsRequestFailed checks if an error is a RequestFailed error.
func IsRequestFailed(err error) bool {
	return isCode(err, ErrCodeRequestFailed)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

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

// UserMessage returns the text shown in a notification for err. Auth
// failures attach to the flow's operation name when one is known.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	switch appErr.Code {
	case ErrCodeRequestFailed:
		return appErr.Operation
	case ErrCodeValidation:
		return appErr.Message
	default:
		return fallback
	}
}
