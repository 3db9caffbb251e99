// Package services provides the legal request lifecycle operations and
// standardized error types for the service layer.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidSortField   = errors.New("invalid sort field")
	ErrInvalidSortOrder   = errors.New("invalid sort order")
	ErrInvalidStatus      = errors.New("invalid review status")
	ErrUnknownRequestType = errors.New("unknown request type")
	ErrAudienceNotAllowed = errors.New("audience not allowed for request type")
	ErrEmptyActor         = errors.New("actor cannot be empty")
	ErrRequestNil         = errors.New("request cannot be nil")

	// Business logic conflicts (409 Conflict).
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReviewTrackMissing = errors.New("review track not part of request audience")
	ErrNotOnHold          = errors.New("request is not on hold")
	ErrRequestTerminal    = errors.New("request is cancelled or on hold")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrUnknownRequestType) ||
		errors.Is(err, ErrAudienceNotAllowed) ||
		errors.Is(err, ErrEmptyActor) ||
		errors.Is(err, ErrRequestNil)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrReviewTrackMissing) ||
		errors.Is(err, ErrNotOnHold) ||
		errors.Is(err, ErrRequestTerminal)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error with context.
func NewConflictError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
