package domain

import (
	"errors"
	"fmt"
)

// Predefined domain errors.
var (
	// ErrNotFound resource does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists resource already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput invalid input
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict resource conflict
	ErrConflict = errors.New("resource conflict")
	// ErrUnauthorized missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream an external gateway (AI provider, automation server) failed
	ErrUpstream = errors.New("upstream failure")
	// ErrInternal internal error
	ErrInternal = errors.New("internal error")
)

// DomainError carries a stable error code and a user-safe message alongside
// the wrapped cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface (used for logs and internal wrapping).
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage returns the user-facing message without internal detail.
func (e *DomainError) UserMessage() string {
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a not-found error for a named resource.
func NewNotFoundError(resourceType, name string) error {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s '%s' not found", resourceType, name),
		Err:     ErrNotFound,
	}
}

// NewAlreadyExistsError creates an already-exists error for a named resource.
func NewAlreadyExistsError(resourceType, name string) error {
	return &DomainError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s '%s' already exists", resourceType, name),
		Err:     ErrAlreadyExists,
	}
}

// NewInvalidInputError creates a validation error with a caller-safe message.
func NewInvalidInputError(message string) error {
	return &DomainError{
		Code:    "INVALID_INPUT",
		Message: message,
		Err:     ErrInvalidInput,
	}
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) error {
	return &DomainError{
		Code:    "CONFLICT",
		Message: message,
		Err:     ErrConflict,
	}
}

// NewUnauthorizedError creates an authentication error.
func NewUnauthorizedError(message string) error {
	return &DomainError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// NewUpstreamError creates an upstream-failure error. The gateway name is part
// of the user message; the cause stays wrapped for logs only.
func NewUpstreamError(gateway string, err error) error {
	return &DomainError{
		Code:    "UPSTREAM_FAILURE",
		Message: fmt.Sprintf("%s request failed", gateway),
		Err:     fmt.Errorf("%w: %v", ErrUpstream, err),
	}
}

// NewInternalError creates an internal error that hides its cause from users.
func NewInternalError(err error) error {
	return &DomainError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Err:     fmt.Errorf("%w: %v", ErrInternal, err),
	}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is an already-exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidInput reports whether err is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized reports whether err is an authentication error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsUpstream reports whether err is an upstream-failure error.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsInternalError reports whether err is an internal error.
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}
