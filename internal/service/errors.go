package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/cardstock/internal/editor"
)

// Common service errors. The API layer maps each of them to an HTTP status.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one
	// making the request. API layer maps this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrSessionNotFound indicates an unknown or expired editing session.
	ErrSessionNotFound = errors.New("editing session not found")

	// ErrElementNotFound indicates an operation named an element that is not
	// on the session's active side.
	ErrElementNotFound = editor.ErrElementNotFound

	// ErrUnsupportedFormat indicates an export format other than pdf or png.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrImportUnavailable indicates that no extractor is configured.
	ErrImportUnavailable = errors.New("card import is not configured")

	// ErrNothingExtracted indicates that an upload produced no card content.
	ErrNothingExtracted = errors.New("no card content could be extracted")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
