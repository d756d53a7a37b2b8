package api

import (
	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/service"
)

// SideRequest switches the side being edited.
type SideRequest struct {
	Side string `json:"side" validate:"required,oneof=front back"`
}

// SelectRequest selects an element on the active side. An empty ElementID
// clears the selection.
type SelectRequest struct {
	ElementID string `json:"elementId" validate:"omitempty,max=128"`
}

// AddElementRequest defines the payload for adding an element to the active side.
type AddElementRequest struct {
	Type  string `json:"type"  validate:"required,oneof=text image shape"`
	Shape string `json:"shape" validate:"omitempty,oneof=rectangle circle"`
}

// PointerRequest carries one pointer event of a drag gesture. Coordinates are
// in card pixels.
type PointerRequest struct {
	Action    string  `json:"action"    validate:"required,oneof=down move up leave"`
	ElementID string  `json:"elementId" validate:"required_if=Action down"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// BackgroundRequest sets the background of the active side.
type BackgroundRequest struct {
	Color string `json:"color" validate:"omitempty,max=64"`
	Image string `json:"image" validate:"omitempty,url"`
}

// TitleRequest renames the card being edited.
type TitleRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// PointerResponse reports whether a pointer event changed the session.
type PointerResponse struct {
	Handled bool `json:"handled"`
}

// ElementResponse returns a newly created element together with the session.
type ElementResponse struct {
	Element domain.Element      `json:"element"`
	Session service.SessionView `json:"session"`
}

// LayoutResponse describes how cards pack onto a page.
type LayoutResponse struct {
	Settings layout.PrintSettings `json:"settings"`
	Capacity layout.Capacity      `json:"capacity"`
}

// PlanResponse is the pagination of a deck without rendered output.
type PlanResponse struct {
	DeckID    uuid.UUID       `json:"deckId"`
	PageCount int             `json:"pageCount"`
	Job       layout.PrintJob `json:"job"`
}

// PreviewResponse carries PNG page previews as data URIs, in page order.
type PreviewResponse struct {
	Pages []string `json:"pages"`
}

// ImportResponse lists the cards created from an upload.
type ImportResponse struct {
	Cards []domain.Card `json:"cards"`
}

// PrintRequest selects print settings, either directly or by preset name.
// Fields set alongside a preset override the preset's values.
type PrintRequest struct {
	Preset       string  `json:"preset,omitempty"       validate:"omitempty,max=64"`
	CardSize     string  `json:"cardSize,omitempty"     validate:"omitempty,max=16"`
	CustomWidth  float64 `json:"customWidth,omitempty"  validate:"omitempty,gt=0"`
	CustomHeight float64 `json:"customHeight,omitempty" validate:"omitempty,gt=0"`
	PaperSize    string  `json:"paperSize,omitempty"    validate:"omitempty,max=16"`
	Orientation  string  `json:"orientation,omitempty"  validate:"omitempty,oneof=portrait landscape"`
	Margin       string  `json:"margin,omitempty"       validate:"omitempty,max=16"`
	IncludeBack  *bool   `json:"includeBack,omitempty"`
}
