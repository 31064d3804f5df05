// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Chat lifecycle codes.
	ErrCodeSessionRequest = "SESSION_REQUEST_ERROR"
	ErrCodeSessionParse   = "SESSION_PARSE_ERROR"
	ErrCodeConfiguration  = "CONFIGURATION_ERROR"
	ErrCodeMessageParse   = "MESSAGE_PARSE_ERROR"
	ErrCodeConnection     = "CONNECTION_ERROR"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConflict,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusConflict,
	}
}

// NewServiceUnavailableError creates a new service unavailable error.
func NewServiceUnavailableError(service string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("%s is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewSessionRequestError reports a non-success response from the session
// initiation endpoint. statusText is the HTTP status line text.
func NewSessionRequestError(statusCode int, statusText string) *DomainError {
	return &DomainError{
		Code:       ErrCodeSessionRequest,
		Message:    "session request failed",
		Details:    statusText,
		HTTPStatus: http.StatusBadGateway,
		Err:        fmt.Errorf("unexpected status code: %d", statusCode),
	}
}

// NewSessionParseError reports a session response without recognizable fields.
func NewSessionParseError(details string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeSessionParse,
		Message:    "invalid session response",
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewConfigurationError reports a session that cannot be connected to.
func NewConfigurationError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConfiguration,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewMessageParseError reports an inbound frame that is not valid JSON.
func NewMessageParseError(err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeMessageParse,
		Message:    "malformed inbound message",
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewConnectionError reports a transport-level failure or timeout.
func NewConnectionError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeConnection,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code string) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == code
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return HasCode(err, ErrCodeUnauthorized)
}

// IsSessionRequestError checks if the error is a session request error.
func IsSessionRequestError(err error) bool {
	return HasCode(err, ErrCodeSessionRequest)
}

// IsSessionParseError checks if the error is a session parse error.
func IsSessionParseError(err error) bool {
	return HasCode(err, ErrCodeSessionParse)
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	return HasCode(err, ErrCodeConfiguration)
}

// IsMessageParseError checks if the error is a message parse error.
func IsMessageParseError(err error) bool {
	return HasCode(err, ErrCodeMessageParse)
}

// IsConnectionError checks if the error is a connection error.
func IsConnectionError(err error) bool {
	return HasCode(err, ErrCodeConnection)
}
