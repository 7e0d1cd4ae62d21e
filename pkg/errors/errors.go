package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across the bootstrap stages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Admin credential acquisition failed; always fatal
	ErrCodeAuthFailed ErrorCode = "AUTH_FAILED"

	// Unexpected outcome from the realm, client or role APIs; fatal for the run
	ErrCodeResourceError ErrorCode = "RESOURCE_ERROR"

	// Failure while creating or role-mapping one user; recovered locally
	ErrCodeUserProvisioning ErrorCode = "USER_PROVISIONING_FAILED"

	// Discovery document not reachable; informational
	ErrCodeProbeFailed ErrorCode = "PROBE_FAILED"

	// Application database not reachable or empty
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetDetails extracts the details from an error
// Returns nil if the error is not a structured Error
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// AuthFailed wraps a credential acquisition failure
func AuthFailed(err error, message string) *Error {
	if err == nil {
		return New(ErrCodeAuthFailed, message)
	}
	return Wrap(err, ErrCodeAuthFailed, message)
}

// ResourceFailed creates a fatal resource error for a realm, client or role call
func ResourceFailed(err error, resourceType, identifier string) *Error {
	e := &Error{
		Code:    ErrCodeResourceError,
		Message: fmt.Sprintf("failed to reconcile %s %q", resourceType, identifier),
		Err:     err,
	}
	return e.WithDetail("resource", resourceType).WithDetail("id", identifier)
}

// UserFailed creates a per-user provisioning error
func UserFailed(err error, username, step string) *Error {
	e := &Error{
		Code:    ErrCodeUserProvisioning,
		Message: fmt.Sprintf("user %q: %s", username, step),
		Err:     err,
	}
	return e.WithDetail("username", username)
}

// ProbeFailed wraps a verification failure
func ProbeFailed(err error, url string) *Error {
	e := &Error{
		Code:    ErrCodeProbeFailed,
		Message: "discovery document not accessible",
		Err:     err,
	}
	return e.WithDetail("url", url)
}

// InvalidInput creates an "invalid input" error
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason))
}
