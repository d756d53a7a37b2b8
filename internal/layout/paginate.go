package layout

import "github.com/phrazzld/cardstock/internal/domain"

// Page is one sheet's worth of cards for a single side. Number counts from 1
// within its side.
type Page struct {
	Side   domain.SideName `json:"side"`
	Number int             `json:"number"`
	Cards  []domain.Card   `json:"cards"`
}

// PrintJob is the ordered list of pages for a deck: every front page, then
// every back page when backs are included.
type PrintJob struct {
	Settings PrintSettings `json:"settings"`
	Capacity Capacity      `json:"capacity"`
	Pages    []Page        `json:"pages"`
}

// GeneratePrintPages splits cards, in order, into pages of CardsPerPage cards.
// With IncludeBack the same chunks are repeated as back pages after all front
// pages. No cards yields an empty job. Settings where no card fits fail with a
// *LayoutError wrapping ErrCardDoesNotFit.
func GeneratePrintPages(cards []domain.Card, settings PrintSettings) (PrintJob, error) {
	capacity, err := CalculateLayout(settings)
	if err != nil {
		return PrintJob{}, err
	}
	if !capacity.Fits() {
		return PrintJob{}, &LayoutError{Settings: settings, Capacity: capacity}
	}

	job := PrintJob{
		Settings: settings,
		Capacity: capacity,
		Pages:    []Page{},
	}
	if len(cards) == 0 {
		return job, nil
	}

	chunks := chunk(cards, capacity.CardsPerPage)
	job.Pages = make([]Page, 0, len(chunks)*2)
	job.Pages = appendSide(job.Pages, domain.SideFront, chunks)
	if settings.IncludeBack {
		job.Pages = appendSide(job.Pages, domain.SideBack, chunks)
	}
	return job, nil
}

// SheetCount is the number of front pages, i.e. physical sheets when printed
// double-sided.
func (j PrintJob) SheetCount() int {
	n := 0
	for _, p := range j.Pages {
		if p.Side == domain.SideFront {
			n++
		}
	}
	return n
}

// PagesFor returns the pages of one side in order.
func (j PrintJob) PagesFor(side domain.SideName) []Page {
	var out []Page
	for _, p := range j.Pages {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

func chunk(cards []domain.Card, size int) [][]domain.Card {
	out := make([][]domain.Card, 0, (len(cards)+size-1)/size)
	for start := 0; start < len(cards); start += size {
		end := min(start+size, len(cards))
		part := make([]domain.Card, end-start)
		copy(part, cards[start:end])
		out = append(out, part)
	}
	return out
}

func appendSide(pages []Page, side domain.SideName, chunks [][]domain.Card) []Page {
	for i, c := range chunks {
		cards := make([]domain.Card, len(c))
		copy(cards, c)
		pages = append(pages, Page{Side: side, Number: i + 1, Cards: cards})
	}
	return pages
}
