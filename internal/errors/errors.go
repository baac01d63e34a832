package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeAllResourcesFailed ErrorType = "all_resources_failed"
	ErrorTypeTimeout            ErrorType = "timeout"
	ErrorTypeCanceled           ErrorType = "canceled"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	StatusCode    int       `json:"status_code"`
	AttemptedURLs []string  `json:"attempted_urls,omitempty"`
	Cause         error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewAllResourcesFailedError is raised when not a single image could be
// fetched. It maps to a client-input error since the URLs came from the caller.
func NewAllResourcesFailedError(attemptedURLs []string) *AppError {
	urls := make([]string, len(attemptedURLs))
	copy(urls, attemptedURLs)
	return &AppError{
		Type: ErrorTypeAllResourcesFailed,
		Message: fmt.Sprintf(
			"Failed to download any images from %d URLs. "+
				"Please check that the URLs are accessible and the backend service is reachable.",
			len(urls)),
		StatusCode:    http.StatusBadRequest,
		AttemptedURLs: urls,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// StatusClientClosedRequest is the non-standard status logged when the
// caller goes away before a response is written.
const StatusClientClosedRequest = 499

// NewCanceledError reports an analysis abandoned because the caller left
func NewCanceledError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCanceled,
		Message:    message,
		StatusCode: StatusClientClosedRequest,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// AsAppError unwraps err down to the first *AppError in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
