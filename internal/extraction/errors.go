package extraction

import "errors"

// Errors returned by Extractor implementations.
var (
	// ErrExtractionFailed is returned when extraction fails for a general reason.
	ErrExtractionFailed = errors.New("failed to extract cards from upload")

	// ErrTransientFailure is returned for temporary failures that may succeed
	// if the user tries again.
	ErrTransientFailure = errors.New("transient error during extraction")

	// ErrContentBlocked is returned when the model refuses the content.
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrInvalidConfig is returned when an extractor is misconfigured.
	ErrInvalidConfig = errors.New("invalid extractor configuration")

	// ErrUnsupportedUpload is returned for uploads whose type cannot be sent.
	ErrUnsupportedUpload = errors.New("unsupported upload type")

	// ErrEmptyUpload is returned for uploads without content.
	ErrEmptyUpload = errors.New("upload is empty")
)
