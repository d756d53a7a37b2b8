package layout

import (
	"errors"
	"fmt"
)

// PointsPerInch converts physical inches to layout units. All layout
// dimensions are PDF points.
const PointsPerInch = 72.0

// CardSpacing is the gap between adjacent cards on a sheet, in both directions.
const CardSpacing = 18.0

var (
	// ErrUnknownCardSize is returned for a card size outside the size table.
	ErrUnknownCardSize = errors.New("unknown card size")

	// ErrUnknownPaperSize is returned for a paper size outside the paper table.
	ErrUnknownPaperSize = errors.New("unknown paper size")

	// ErrUnknownMargin is returned for a margin other than normal or narrow.
	ErrUnknownMargin = errors.New("unknown margin")

	// ErrUnknownOrientation is returned for an orientation other than portrait or landscape.
	ErrUnknownOrientation = errors.New("unknown orientation")

	// ErrInvalidCustomSize is returned when a custom card has no positive width and height.
	ErrInvalidCustomSize = errors.New("custom card size needs positive width and height")
)

// CardSize names an index card format.
type CardSize string

const (
	Card3x5    CardSize = "3x5"
	Card4x6    CardSize = "4x6"
	Card5x8    CardSize = "5x8"
	CardCustom CardSize = "custom"
)

// PaperSize names a sheet format.
type PaperSize string

const (
	PaperLetter PaperSize = "letter"
	PaperA4     PaperSize = "a4"
	PaperLegal  PaperSize = "legal"
)

// Orientation of the sheet.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Margin names a page margin preset.
type Margin string

const (
	MarginNormal Margin = "normal"
	MarginNarrow Margin = "narrow"
)

// Dimensions is a width and height in points.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Swap returns d with width and height exchanged.
func (d Dimensions) Swap() Dimensions {
	return Dimensions{Width: d.Height, Height: d.Width}
}

var cardSizes = map[CardSize]Dimensions{
	Card3x5: {Width: 3 * PointsPerInch, Height: 5 * PointsPerInch},
	Card4x6: {Width: 4 * PointsPerInch, Height: 6 * PointsPerInch},
	Card5x8: {Width: 5 * PointsPerInch, Height: 8 * PointsPerInch},
}

var paperSizes = map[PaperSize]Dimensions{
	PaperLetter: {Width: 612, Height: 792},
	PaperA4:     {Width: 595.28, Height: 841.89},
	PaperLegal:  {Width: 612, Height: 1008},
}

var margins = map[Margin]float64{
	MarginNormal: 36,
	MarginNarrow: 18,
}

// PrintSettings selects how a deck is laid out for printing. CustomWidth and
// CustomHeight are in inches and only used when CardSize is custom.
type PrintSettings struct {
	CardSize     CardSize    `json:"cardSize" yaml:"card_size"`
	CustomWidth  float64     `json:"customWidth,omitempty" yaml:"custom_width,omitempty"`
	CustomHeight float64     `json:"customHeight,omitempty" yaml:"custom_height,omitempty"`
	PaperSize    PaperSize   `json:"paperSize" yaml:"paper_size"`
	Orientation  Orientation `json:"orientation" yaml:"orientation"`
	Margin       Margin      `json:"margin" yaml:"margin"`
	IncludeBack  bool        `json:"includeBack" yaml:"include_back"`
}

// DefaultSettings returns 3x5 cards on portrait letter paper with normal margins.
func DefaultSettings() PrintSettings {
	return PrintSettings{
		CardSize:    Card3x5,
		PaperSize:   PaperLetter,
		Orientation: Portrait,
		Margin:      MarginNormal,
	}
}

// WithDefaults fills every empty field from DefaultSettings.
func (s PrintSettings) WithDefaults() PrintSettings {
	d := DefaultSettings()
	if s.CardSize == "" {
		s.CardSize = d.CardSize
	}
	if s.PaperSize == "" {
		s.PaperSize = d.PaperSize
	}
	if s.Orientation == "" {
		s.Orientation = d.Orientation
	}
	if s.Margin == "" {
		s.Margin = d.Margin
	}
	return s
}

// Validate checks every field against its table.
func (s PrintSettings) Validate() error {
	if _, err := s.CardDimensions(); err != nil {
		return err
	}
	if _, err := s.PaperDimensions(); err != nil {
		return err
	}
	_, err := s.MarginValue()
	return err
}

// CardDimensions resolves the card size in points.
func (s PrintSettings) CardDimensions() (Dimensions, error) {
	if s.CardSize == CardCustom {
		if s.CustomWidth <= 0 || s.CustomHeight <= 0 {
			return Dimensions{}, ErrInvalidCustomSize
		}
		return Dimensions{
			Width:  s.CustomWidth * PointsPerInch,
			Height: s.CustomHeight * PointsPerInch,
		}, nil
	}
	d, ok := cardSizes[s.CardSize]
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrUnknownCardSize, s.CardSize)
	}
	return d, nil
}

// PaperDimensions resolves the sheet size in points. Landscape swaps the
// paper's width and height.
func (s PrintSettings) PaperDimensions() (Dimensions, error) {
	d, ok := paperSizes[s.PaperSize]
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrUnknownPaperSize, s.PaperSize)
	}
	switch s.Orientation {
	case Portrait, "":
		return d, nil
	case Landscape:
		return d.Swap(), nil
	default:
		return Dimensions{}, fmt.Errorf("%w: %q", ErrUnknownOrientation, s.Orientation)
	}
}

// MarginValue resolves the margin applied to each page edge, in points.
func (s PrintSettings) MarginValue() (float64, error) {
	m, ok := margins[s.Margin]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMargin, s.Margin)
	}
	return m, nil
}

// String describes the combination, e.g. "3x5 on letter portrait, normal margin".
func (s PrintSettings) String() string {
	card := string(s.CardSize)
	if s.CardSize == CardCustom {
		card = fmt.Sprintf("custom %gx%gin", s.CustomWidth, s.CustomHeight)
	}
	orientation := s.Orientation
	if orientation == "" {
		orientation = Portrait
	}
	return fmt.Sprintf("%s on %s %s, %s margin", card, s.PaperSize, orientation, s.Margin)
}
