package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Pair is one extracted card: the text for its front and back.
type Pair struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Empty reports whether both sides are blank.
func (p Pair) Empty() bool {
	return strings.TrimSpace(p.Front) == "" && strings.TrimSpace(p.Back) == ""
}

// Upload is a file submitted for extraction.
type Upload struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Supported upload types.
const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
	MIMEText = "text/plain"
)

// IsImage reports whether the upload is a supported image.
func (u Upload) IsImage() bool {
	switch u.MIMEType {
	case MIMEPNG, MIMEJPEG, MIMEWebP:
		return true
	}
	return false
}

// Validate checks the upload has content and a supported type.
func (u Upload) Validate() error {
	if len(u.Data) == 0 {
		return ErrEmptyUpload
	}
	switch u.MIMEType {
	case MIMEPDF, MIMEText:
		return nil
	}
	if u.IsImage() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedUpload, u.MIMEType)
}

// Extractor produces text pairs from an upload.
type Extractor interface {
	// Extract returns at least one pair for a valid upload, or an error
	// wrapping one of this package's sentinel errors.
	Extract(ctx context.Context, upload Upload) ([]Pair, error)
}
