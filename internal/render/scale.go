package render

import (
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
)

// Scale factors for the two output surfaces. Layout units are points, so an
// export at ExportScale keeps physical sizes and a preview at PreviewScale is
// a quarter of them.
const (
	PreviewScale = 0.25
	ExportScale  = 1.0
)

// ScaleElement multiplies the element's x, y, width, height and font size by
// factor. It is the only place where geometry is scaled for output.
func ScaleElement(el domain.Element, factor float64) domain.Element {
	el.X *= factor
	el.Y *= factor
	el.Width *= factor
	el.Height *= factor
	el.FontSize *= factor
	return el
}

// Placement is one card drawn on one sheet: the side being printed and the
// card's box on the sheet. Elements are already scaled and in paint order,
// with coordinates relative to the card box.
type Placement struct {
	Card            domain.Card
	Side            domain.SideName
	X, Y            float64
	Width, Height   float64
	BackgroundColor string
	BackgroundImage string
	Elements        []domain.Element
}

// Sheet is a page ready to draw at a given scale.
type Sheet struct {
	Side       domain.SideName
	Number     int
	Width      float64
	Height     float64
	Placements []Placement
}

// Sheets turns every page of job into a Sheet at factor. Back pages mirror
// their columns so each back lands behind its front when the sheet is flipped
// on its long edge.
func Sheets(job layout.PrintJob, factor float64) []Sheet {
	sheets := make([]Sheet, 0, len(job.Pages))
	for _, page := range job.Pages {
		sheets = append(sheets, PageSheet(job.Capacity, page, factor))
	}
	return sheets
}

// PageSheet builds the Sheet for a single page.
func PageSheet(c layout.Capacity, page layout.Page, factor float64) Sheet {
	sheet := Sheet{
		Side:       page.Side,
		Number:     page.Number,
		Width:      c.Paper.Width * factor,
		Height:     c.Paper.Height * factor,
		Placements: make([]Placement, 0, len(page.Cards)),
	}

	for i, card := range page.Cards {
		slot := i
		if page.Side == domain.SideBack && c.CardsPerRow > 0 {
			row, col := i/c.CardsPerRow, i%c.CardsPerRow
			slot = row*c.CardsPerRow + (c.CardsPerRow - 1 - col)
		}
		x, y := c.SlotOrigin(slot)

		side := card.Side(page.Side)
		ordered := side.PaintOrder()
		elements := make([]domain.Element, len(ordered))
		for j, el := range ordered {
			elements[j] = ScaleElement(el, factor)
		}

		sheet.Placements = append(sheet.Placements, Placement{
			Card:            card,
			Side:            page.Side,
			X:               x * factor,
			Y:               y * factor,
			Width:           c.Card.Width * factor,
			Height:          c.Card.Height * factor,
			BackgroundColor: side.BackgroundColor,
			BackgroundImage: side.BackgroundImage,
			Elements:        elements,
		})
	}
	return sheet
}
