package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNoFileProvided     = "NO_FILE_PROVIDED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so that errors.Is works
// for validation errors built with distinct messages.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// Common domain errors
var (
	ErrValidation         = NewDomainError(ErrCodeValidation, "Validation failed")
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "Unauthorised")
	ErrIncorrectPassword  = NewDomainError(ErrCodeUnauthorised, "Incorrect password")
	ErrInvalidToken       = NewDomainError(ErrCodeUnauthorised, "Invalid or expired token")
	ErrProductNotFound    = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrNoFileProvided     = NewDomainError(ErrCodeNoFileProvided, "No file uploaded")
	ErrStorageUnavailable = NewDomainError(ErrCodeStorageUnavailable, "Storage unavailable")
)

// storageError wraps a backing-store failure so that it matches
// ErrStorageUnavailable while keeping the cause.
type storageError struct {
	cause error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %v", ErrStorageUnavailable.Message, e.cause)
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.cause}
}

// StorageError marks err as a storage availability failure.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return &storageError{cause: err}
}
