package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every aggregate and service in this module.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state transition")
)

// DomainError carries one of the sentinel errors plus a human readable message.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Err: ErrNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError reports an authenticated caller that is not allowed to act.
func NewForbiddenError(reason string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: "forbidden: " + reason}
}

// NewUnauthenticatedError reports a missing or unusable credential.
func NewUnauthenticatedError(reason string) *DomainError {
	return &DomainError{Err: ErrUnauthenticated, Message: reason}
}

// NewInvalidTokenError reports a token that failed signature, expiry or revocation checks.
func NewInvalidTokenError(reason string) *DomainError {
	return &DomainError{Err: ErrInvalidToken, Message: "invalid token: " + reason}
}

// NewValidationError reports malformed input.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Err: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a uniqueness or concurrency conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewInvalidStateError reports a transition the aggregate does not allow.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
