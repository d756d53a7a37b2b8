package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/phrazzld/cardstock/internal/layout"
)

// ErrExportMismatch is returned when an exported PDF does not match its job.
var ErrExportMismatch = errors.New("exported PDF does not match print job")

// dimensionTolerance absorbs rounding from the points/millimetre round trip.
const dimensionTolerance = 1.0

// VerifyPDF checks that data holds one page per job page and that every page
// has the job's paper dimensions.
func VerifyPDF(data []byte, job layout.PrintJob) error {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return fmt.Errorf("failed to read exported PDF: %w", err)
	}
	if count != len(job.Pages) {
		return fmt.Errorf("%w: %d pages, want %d", ErrExportMismatch, count, len(job.Pages))
	}

	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		return fmt.Errorf("failed to read exported page sizes: %w", err)
	}
	want := job.Capacity.Paper
	for i, d := range dims {
		if math.Abs(d.Width-want.Width) > dimensionTolerance || math.Abs(d.Height-want.Height) > dimensionTolerance {
			return fmt.Errorf("%w: page %d is %.2fx%.2fpt, want %.2fx%.2fpt",
				ErrExportMismatch, i+1, d.Width, d.Height, want.Width, want.Height)
		}
	}
	return nil
}
