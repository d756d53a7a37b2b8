// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidElementKind is returned for an element type outside text, image and shape.
	ErrInvalidElementKind = errors.New("invalid element kind")

	// ErrInvalidShapeVariant is returned for a shape tag other than rectangle or circle.
	ErrInvalidShapeVariant = errors.New("invalid shape variant")

	// ErrDuplicateElementID is returned when two elements on one side share an id.
	ErrDuplicateElementID = errors.New("duplicate element id")

	// ErrInvalidSide is returned when a side name is neither front nor back.
	ErrInvalidSide = errors.New("invalid card side")

	// ErrInvalidCardContent is returned when persisted side content cannot be decoded.
	ErrInvalidCardContent = errors.New("invalid card content")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field. It unwraps to ErrValidation
// so callers can test for the category with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field. err may be nil.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the specific cause when present and ErrValidation otherwise.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}
