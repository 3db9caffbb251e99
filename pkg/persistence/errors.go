// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRequestNotFound indicates a request was not found by the given
	// identifier.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestAlreadyExists indicates a request with the same identifier
	// already exists.
	ErrRequestAlreadyExists = errors.New("request already exists")

	// ErrInvalidReviewStatus indicates a stored record carries a status the
	// workflow does not know.
	ErrInvalidReviewStatus = errors.New("invalid review status")
)

// RequestError wraps request storage errors with operation context.
type RequestError struct {
	Op        string // Operation being performed (e.g., "GetByID", "Save")
	RequestID string // Request ID if applicable
	Message   string // Additional context message
	Err       error  // Underlying error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for request %s: %s (%v)", e.Op, e.RequestID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for request %s: %v", e.Op, e.RequestID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRequestError creates a new request error with context.
func NewRequestError(op, requestID string, err error) *RequestError {
	return &RequestError{
		Op:        op,
		RequestID: requestID,
		Err:       err,
	}
}

// IsRequestNotFound checks if an error indicates a missing request.
func IsRequestNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}

// IsRequestAlreadyExists checks if an error indicates a duplicate request.
func IsRequestAlreadyExists(err error) bool {
	return errors.Is(err, ErrRequestAlreadyExists)
}
