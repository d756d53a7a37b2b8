package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/render"
	"github.com/phrazzld/cardstock/internal/service"
	"github.com/phrazzld/cardstock/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge

	// Authentication and authorization errors
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrElementNotFound),
		errors.Is(err, layout.ErrPresetNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Unusable print settings and uploads the model refused
	case errors.Is(err, layout.ErrCardDoesNotFit),
		errors.Is(err, render.ErrEmptyJob),
		errors.Is(err, extraction.ErrContentBlocked),
		errors.Is(err, service.ErrNothingExtracted):
		return http.StatusUnprocessableEntity

	case errors.Is(err, extraction.ErrUnsupportedUpload):
		return http.StatusUnsupportedMediaType

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidElementKind),
		errors.Is(err, domain.ErrInvalidShapeVariant),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, layout.ErrUnknownCardSize),
		errors.Is(err, layout.ErrUnknownPaperSize),
		errors.Is(err, layout.ErrUnknownMargin),
		errors.Is(err, layout.ErrUnknownOrientation),
		errors.Is(err, layout.ErrInvalidCustomSize),
		errors.Is(err, render.ErrPageOutOfRange),
		errors.Is(err, render.ErrInvalidScale),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, extraction.ErrEmptyUpload),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Upstream failures
	case errors.Is(err, extraction.ErrExtractionFailed):
		return http.StatusBadGateway
	case errors.Is(err, extraction.ErrTransientFailure),
		errors.Is(err, service.ErrImportUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var maxBytes *http.MaxBytesError
	var layoutErr *layout.LayoutError
	switch {
	case errors.As(err, &maxBytes):
		return fmt.Sprintf("Request body exceeds %d bytes", maxBytes.Limit)

	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, service.ErrSessionNotFound):
		return "Editing session not found"
	case errors.Is(err, service.ErrElementNotFound):
		return "Element not found"
	case errors.Is(err, layout.ErrPresetNotFound):
		return "Print preset not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.As(err, &layoutErr):
		return fmt.Sprintf("Card does not fit current paper/margin combination (%s)", layoutErr.Settings)
	case errors.Is(err, layout.ErrCardDoesNotFit):
		return "Card does not fit current paper/margin combination"
	case errors.Is(err, render.ErrEmptyJob):
		return "Deck has no cards to print"
	case errors.Is(err, render.ErrPageOutOfRange):
		return "Page out of range"
	case errors.Is(err, render.ErrInvalidScale):
		return "Preview scale out of range"
	case errors.Is(err, layout.ErrUnknownCardSize):
		return "Unknown card size"
	case errors.Is(err, layout.ErrUnknownPaperSize):
		return "Unknown paper size"
	case errors.Is(err, layout.ErrUnknownMargin):
		return "Unknown margin"
	case errors.Is(err, layout.ErrUnknownOrientation):
		return "Unknown orientation"
	case errors.Is(err, layout.ErrInvalidCustomSize):
		return "Custom card size needs positive width and height"
	case errors.Is(err, service.ErrUnsupportedFormat):
		return "Unsupported export format"

	case errors.Is(err, extraction.ErrEmptyUpload):
		return "Upload is empty"
	case errors.Is(err, extraction.ErrUnsupportedUpload):
		return "Unsupported upload type"
	case errors.Is(err, extraction.ErrContentBlocked):
		return "Upload was rejected by content filters"
	case errors.Is(err, service.ErrNothingExtracted):
		return "No card content could be extracted from the upload"
	case errors.Is(err, extraction.ErrExtractionFailed):
		return "Card extraction failed"
	case errors.Is(err, extraction.ErrTransientFailure):
		return "Card extraction is temporarily unavailable"
	case errors.Is(err, service.ErrImportUnavailable):
		return "Card import is not configured"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrInvalidSide):
		return "Side must be front or back"
	case errors.Is(err, domain.ErrInvalidElementKind):
		return "Element type must be text, image or shape"
	case errors.Is(err, domain.ErrInvalidShapeVariant):
		return "Shape must be rectangle or circle"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return fmt.Sprintf("Invalid %s: %s", ve.Field, ve.Message)
		}
		return "Validation error"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid card content"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	if errors.Is(err, domain.ErrValidation) || isLayoutSettingsError(err) {
		return GetSafeErrorMessage(err)
	}
	return "Validation error"
}

func isLayoutSettingsError(err error) bool {
	return errors.Is(err, layout.ErrUnknownCardSize) ||
		errors.Is(err, layout.ErrUnknownPaperSize) ||
		errors.Is(err, layout.ErrUnknownMargin) ||
		errors.Is(err, layout.ErrUnknownOrientation) ||
		errors.Is(err, layout.ErrInvalidCustomSize)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err. For internal
// errors a non-empty message replaces the generic one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" || status != http.StatusInternalServerError {
		message = GetSafeErrorMessage(err)
	}
	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
