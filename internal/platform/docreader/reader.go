// Package docreader reads the text layer of uploaded PDFs with MuPDF.
package docreader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrTooManyPages is returned for documents longer than the reader's limit.
var ErrTooManyPages = errors.New("document has too many pages")

// DefaultMaxPages bounds the pages read from one upload.
const DefaultMaxPages = 50

// Reader extracts text from PDF bytes.
type Reader struct {
	maxPages int
}

// New creates a Reader that refuses documents over maxPages. A non-positive
// maxPages uses DefaultMaxPages.
func New(maxPages int) *Reader {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Reader{maxPages: maxPages}
}

// Text returns the text of every page, pages separated by a blank line.
func (r *Reader) Text(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = doc.Close() }()

	pages := doc.NumPage()
	if pages > r.maxPages {
		return "", fmt.Errorf("%w: %d pages, limit %d", ErrTooManyPages, pages, r.maxPages)
	}

	var sb strings.Builder
	for n := 0; n < pages; n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", n+1, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// PageCount returns the number of pages in the document.
func (r *Reader) PageCount(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = doc.Close() }()
	return doc.NumPage(), nil
}
