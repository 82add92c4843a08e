package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// New creates an error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates an error of the given type wrapping an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// NewNetwork creates a network error
func NewNetwork(message string, err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: message, Err: err}
}

// NewRateLimit creates a rate limit error with the offending status code
func NewRateLimit(message string, code int) *Error {
	return &Error{Type: ErrorTypeRateLimit, Message: message, Code: code}
}

// NewParsing creates a parsing error
func NewParsing(message string, err error) *Error {
	return &Error{Type: ErrorTypeParsing, Message: message, Err: err}
}

// NewNotFound creates a not found error
func NewNotFound(message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message}
}

// NewStorage creates a storage error
func NewStorage(message string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Message: message, Err: err}
}

// TypeOf returns the error type of err, or ErrorTypeUnknown for foreign errors
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeStorage:
		return false
	default:
		return false
	}
}

// IsRetryableError checks if err should be retried
func IsRetryableError(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return IsRetryable(e.Type)
	}
	return false
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

// FromStatusCode maps an HTTP status code to an error of the right type
func FromStatusCode(statusCode int, message string) *Error {
	switch {
	case statusCode == 429:
		return &Error{Type: ErrorTypeRateLimit, Message: message, Code: statusCode}
	case statusCode == 401 || statusCode == 403:
		return &Error{Type: ErrorTypeAuth, Message: message, Code: statusCode}
	case statusCode == 404:
		return &Error{Type: ErrorTypeNotFound, Message: message, Code: statusCode}
	case statusCode >= 500:
		return &Error{Type: ErrorTypeServerError, Message: message, Code: statusCode}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: message, Code: statusCode}
	}
}
