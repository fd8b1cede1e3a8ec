package automodeler

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a category of error for logging and display.
type ErrorCode string

// Error codes for categorization.
const (
	ErrCodeConfig     ErrorCode = "CONFIG"     // Configuration errors
	ErrCodeValidation ErrorCode = "VALIDATION" // Client-side input validation errors
	ErrCodeNetwork    ErrorCode = "NETWORK"    // Network/connection errors
	ErrCodeAPI        ErrorCode = "API"        // Non-success HTTP status
	ErrCodeAuth       ErrorCode = "AUTH"       // Missing or rejected session
	ErrCodeSemantic   ErrorCode = "SEMANTIC"   // Success status with an error payload
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal client errors
)

// Error is the common interface for typed errors returned by this package.
//
// Example:
//
//	var amErr automodeler.Error
//	if errors.As(err, &amErr) {
//	    if amErr.IsRetryable() {
//	        // offer "try again" for the same action
//	    }
//	    log.Printf("error code: %s", amErr.Code())
//	}
type Error interface {
	error

	// Code returns a machine-readable error code for categorization.
	Code() ErrorCode

	// IsRetryable reports whether re-invoking the same action may succeed
	// without changing input. The client itself never retries.
	IsRetryable() bool
}

// Sentinel errors for configuration and request construction.
var (
	ErrMissingBaseURL   = errors.New("automodeler: base URL is required")
	ErrInvalidConfig    = errors.New("automodeler: invalid configuration")
	ErrNilRequest       = errors.New("automodeler: request cannot be nil")
	ErrNotAuthenticated = errors.New("automodeler: not authenticated")
)

// Sentinel APIError values for use with errors.Is().
// These match on status code only.
var (
	ErrBadRequest   = &APIError{StatusCode: 400}
	ErrUnauthorized = &APIError{StatusCode: 401}
	ErrForbidden    = &APIError{StatusCode: 403}
	ErrNotFound     = &APIError{StatusCode: 404}
)

// APIError represents a non-success HTTP response from the backend.
type APIError struct {
	StatusCode   int    `json:"-"`
	Message      string `json:"message"`
	ErrorMessage string `json:"error"`
	Path         string `json:"-"`
	Err          error  `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorMessage
	}
	if msg != "" {
		return fmt.Sprintf("automodeler: API error (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("automodeler: API error (status %d)", e.StatusCode)
}

// ServerMessage returns the message the backend attached to the response,
// preferring "message" over "error".
func (e *APIError) ServerMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorMessage
}

// Unwrap returns the underlying error for error chain support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for errors.Is().
// It matches on status code, allowing comparisons like:
//
//	if errors.Is(err, automodeler.ErrNotFound) { ... }
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// IsRetryable reports true for 5xx answers and 429. A 4xx means the input
// or the session has to change first.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Code implements Error.
func (e *APIError) Code() ErrorCode {
	switch e.StatusCode {
	case 401, 403:
		return ErrCodeAuth
	default:
		return ErrCodeAPI
	}
}

var _ Error = (*APIError)(nil)

// NetworkError wraps a failure to reach the backend or read its response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("automodeler: %s %s failed: %v", e.Method, e.Path, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Code implements Error.
func (e *NetworkError) Code() ErrorCode {
	return ErrCodeNetwork
}

// IsRetryable implements Error. Cancellation is not retryable.
func (e *NetworkError) IsRetryable() bool {
	return !errors.Is(e.Err, context.Canceled)
}

var _ Error = (*NetworkError)(nil)

// SemanticError is returned when the backend answers with a success status
// but the payload reports failure, as in {"success": false, "error": "..."}
// or {"status": "error", "message": "..."}.
type SemanticError struct {
	StatusCode int
	Message    string
	Path       string
}

// Error implements the error interface.
func (e *SemanticError) Error() string {
	if e.Message == "" {
		return "automodeler: request rejected by server"
	}
	return "automodeler: " + e.Message
}

// Code implements Error.
func (e *SemanticError) Code() ErrorCode {
	return ErrCodeSemantic
}

// IsRetryable implements Error. The server understood the request and
// refused it, so the input must change first.
func (e *SemanticError) IsRetryable() bool {
	return false
}

var _ Error = (*SemanticError)(nil)

// ValidationError represents client-side validation of a field that failed
// before any request was sent.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("automodeler: validation error for field %q: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Code implements Error.
func (e *ValidationError) Code() ErrorCode {
	return ErrCodeValidation
}

// IsRetryable returns false for validation errors (they should be fixed, not retried).
func (e *ValidationError) IsRetryable() bool {
	return false
}

var _ Error = (*ValidationError)(nil)

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorWithCause creates a new validation error with an underlying cause.
func NewValidationErrorWithCause(field, message string, cause error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     cause,
	}
}

// AsAPIError extracts an APIError from the error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// AsValidationError extracts a ValidationError from the error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr, true
	}
	return nil, false
}

// AsSemanticError extracts a SemanticError from the error chain.
func AsSemanticError(err error) (*SemanticError, bool) {
	var semErr *SemanticError
	if errors.As(err, &semErr) {
		return semErr, true
	}
	return nil, false
}

// IsRetryable reports whether re-invoking the failed action may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var amErr Error
	if errors.As(err, &amErr) {
		return amErr.IsRetryable()
	}
	return false
}

// ErrorCodeOf returns the error code for an error.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var amErr Error
	if errors.As(err, &amErr) {
		return amErr.Code()
	}

	switch {
	case errors.Is(err, ErrMissingBaseURL), errors.Is(err, ErrInvalidConfig):
		return ErrCodeConfig
	case errors.Is(err, ErrNotAuthenticated):
		return ErrCodeAuth
	case errors.Is(err, ErrNilRequest):
		return ErrCodeValidation
	}
	return ErrCodeInternal
}

// UserMessage returns the text to show the user for err: the server's own
// message for API and semantic errors, the field message for validation
// errors, and err.Error() otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if semErr, ok := AsSemanticError(err); ok && semErr.Message != "" {
		return semErr.Message
	}
	if apiErr, ok := AsAPIError(err); ok {
		if msg := apiErr.ServerMessage(); msg != "" {
			return msg
		}
	}
	if valErr, ok := AsValidationError(err); ok {
		return valErr.Field + ": " + valErr.Message
	}
	return err.Error()
}
