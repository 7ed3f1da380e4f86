package shared

import "fmt"

// Error codes used across bounded contexts
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeConsistency     = "CONSISTENCY_ERROR"
	CodeInvalidState    = "INVALID_STATE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrNotFound) regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps cause in its chain
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error for the given resource and key
func NewNotFoundError(resource string, key any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, key))
}

// NewExternalServiceError creates an error for a failed or malformed external call
func NewExternalServiceError(message string, cause error) *DomainError {
	return WrapDomainError(CodeExternalService, message, cause)
}

// NewConsistencyError creates an error for a failed derived-field recomputation.
// It must abort the surrounding unit of work.
func NewConsistencyError(message string, cause error) *DomainError {
	return WrapDomainError(CodeConsistency, message, cause)
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation      = NewDomainError(CodeValidation, "Invalid input provided")
	ErrExternalService = NewDomainError(CodeExternalService, "External service failed")
	ErrConsistency     = NewDomainError(CodeConsistency, "Derived value could not be recomputed")
	ErrInvalidState    = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)
