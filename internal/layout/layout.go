package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrCardDoesNotFit is returned when not a single card fits on a sheet with the
// chosen card size, paper size, orientation and margin.
var ErrCardDoesNotFit = errors.New("card does not fit current paper/margin combination")

// LayoutError reports an unusable combination of settings together with the
// capacity that was computed for it.
type LayoutError struct {
	Settings PrintSettings
	Capacity Capacity
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%v: %s (%gx%gpt card, %gx%gpt printable area)",
		ErrCardDoesNotFit, e.Settings,
		e.Capacity.Card.Width, e.Capacity.Card.Height,
		e.Capacity.AvailableWidth, e.Capacity.AvailableHeight)
}

func (e *LayoutError) Unwrap() error {
	return ErrCardDoesNotFit
}

// Capacity describes how cards are packed onto one sheet, along with the
// resolved dimensions that produced the counts. A zero count means the card
// does not fit.
type Capacity struct {
	Card            Dimensions `json:"card"`
	Paper           Dimensions `json:"paper"`
	Margin          float64    `json:"margin"`
	Spacing         float64    `json:"spacing"`
	AvailableWidth  float64    `json:"availableWidth"`
	AvailableHeight float64    `json:"availableHeight"`
	CardsPerRow     int        `json:"cardsPerRow"`
	RowsPerPage     int        `json:"rowsPerPage"`
	CardsPerPage    int        `json:"cardsPerPage"`
}

// Calculate packs card onto paper with margin on every edge and CardSpacing
// between cards. It is a pure function of its arguments.
func Calculate(card, paper Dimensions, margin float64) Capacity {
	c := Capacity{
		Card:            card,
		Paper:           paper,
		Margin:          margin,
		Spacing:         CardSpacing,
		AvailableWidth:  paper.Width - 2*margin,
		AvailableHeight: paper.Height - 2*margin,
	}
	c.CardsPerRow = fitCount(c.AvailableWidth, card.Width+CardSpacing)
	c.RowsPerPage = fitCount(c.AvailableHeight, card.Height+CardSpacing)
	c.CardsPerPage = c.CardsPerRow * c.RowsPerPage
	return c
}

// CalculateLayout resolves settings against the size tables and computes the
// sheet capacity. It fails only on unknown settings; a card that does not fit
// yields a Capacity with zero counts, see Fits.
func CalculateLayout(s PrintSettings) (Capacity, error) {
	card, err := s.CardDimensions()
	if err != nil {
		return Capacity{}, err
	}
	paper, err := s.PaperDimensions()
	if err != nil {
		return Capacity{}, err
	}
	margin, err := s.MarginValue()
	if err != nil {
		return Capacity{}, err
	}
	return Calculate(card, paper, margin), nil
}

// Fits reports whether at least one card fits on a sheet.
func (c Capacity) Fits() bool {
	return c.CardsPerPage > 0
}

// SlotOrigin returns the top-left corner of slot i on a sheet. Slots fill rows
// left to right, top to bottom, starting at the margin corner. i is taken
// modulo CardsPerPage.
func (c Capacity) SlotOrigin(i int) (x, y float64) {
	if !c.Fits() {
		return c.Margin, c.Margin
	}
	i %= c.CardsPerPage
	col := i % c.CardsPerRow
	row := i / c.CardsPerRow
	x = c.Margin + float64(col)*(c.Card.Width+c.Spacing)
	y = c.Margin + float64(row)*(c.Card.Height+c.Spacing)
	return x, y
}

func fitCount(available, step float64) int {
	if available <= 0 || step <= 0 {
		return 0
	}
	return int(math.Floor(available / step))
}
