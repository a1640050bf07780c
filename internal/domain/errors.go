// Package domain provides canonical error types for record services.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a service error.
type ErrorType string

const (
	// ErrorTypeBadRequest indicates a malformed or invalid call.
	ErrorTypeBadRequest ErrorType = "bad_request"

	// ErrorTypeNotAuthenticated indicates a missing or invalid credential.
	ErrorTypeNotAuthenticated ErrorType = "not_authenticated"

	// ErrorTypeForbidden indicates the caller may not perform the call.
	ErrorTypeForbidden ErrorType = "forbidden"

	// ErrorTypeNotFound indicates a service or record was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeMethodNotAllowed indicates the method is blocked for this
	// caller or transport.
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"

	// ErrorTypeConflict indicates the call collides with existing state.
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypeUnprocessable indicates a well-formed call the service
	// cannot act on.
	ErrorTypeUnprocessable ErrorType = "unprocessable"

	// ErrorTypeTimeout indicates the call ran out of time.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeServer indicates an internal failure.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeMissingField    ErrorCode = "missing_field"
	ErrorCodeUnknownService  ErrorCode = "unknown_service"
	ErrorCodeRecordNotFound  ErrorCode = "record_not_found"
	ErrorCodeRecordExists    ErrorCode = "record_exists"
	ErrorCodeTransportDenied ErrorCode = "transport_denied"
	ErrorCodeWebhookDenied   ErrorCode = "webhook_denied"
)

// ServiceError is the canonical error a service call surfaces to hosts.
// Transports translate it to their own wire format.
type ServiceError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code ErrorCode `json:"code,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Field is the data field that caused the error (if applicable)
	Field string `json:"field,omitempty"`

	// StatusCode is the suggested HTTP status code
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *ServiceError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	// Map error types to default status codes
	switch e.Type {
	case ErrorTypeBadRequest:
		return http.StatusBadRequest
	case ErrorTypeNotAuthenticated:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnprocessable:
		return http.StatusUnprocessableEntity
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewServiceError creates a new service error.
func NewServiceError(errType ErrorType, message string) *ServiceError {
	return &ServiceError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *ServiceError) WithCode(code ErrorCode) *ServiceError {
	e.Code = code
	return e
}

// WithField adds a field name to the error.
func (e *ServiceError) WithField(field string) *ServiceError {
	e.Field = field
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *ServiceError) WithStatusCode(code int) *ServiceError {
	e.StatusCode = code
	return e
}

// Convenience constructors for common errors

// ErrBadRequest creates a bad request error.
func ErrBadRequest(message string) *ServiceError {
	return NewServiceError(ErrorTypeBadRequest, message)
}

// ErrNotAuthenticated creates an authentication error.
func ErrNotAuthenticated(message string) *ServiceError {
	return NewServiceError(ErrorTypeNotAuthenticated, message)
}

// ErrForbidden creates a forbidden error.
func ErrForbidden(message string) *ServiceError {
	return NewServiceError(ErrorTypeForbidden, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(message string) *ServiceError {
	return NewServiceError(ErrorTypeNotFound, message)
}

// ErrMethodNotAllowed creates a method not allowed error.
func ErrMethodNotAllowed(message string) *ServiceError {
	return NewServiceError(ErrorTypeMethodNotAllowed, message)
}

// ErrConflict creates a conflict error.
func ErrConflict(message string) *ServiceError {
	return NewServiceError(ErrorTypeConflict, message)
}

// ErrUnprocessable creates an unprocessable error.
func ErrUnprocessable(message string) *ServiceError {
	return NewServiceError(ErrorTypeUnprocessable, message)
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *ServiceError {
	return NewServiceError(ErrorTypeTimeout, message)
}

// ErrServer creates a server error.
func ErrServer(message string) *ServiceError {
	return NewServiceError(ErrorTypeServer, message)
}
