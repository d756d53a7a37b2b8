package domain

import "fmt"

// ElementKind identifies what an element draws.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindImage ElementKind = "image"
	KindShape ElementKind = "shape"
)

// Valid reports whether k is a known element kind.
func (k ElementKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindShape:
		return true
	}
	return false
}

// ShapeVariant is the content tag carried by shape elements.
type ShapeVariant string

const (
	ShapeRectangle ShapeVariant = "rectangle"
	ShapeCircle    ShapeVariant = "circle"
)

// Valid reports whether v is a known shape variant.
func (v ShapeVariant) Valid() bool {
	return v == ShapeRectangle || v == ShapeCircle
}

// Defaults applied to newly created elements.
const (
	DefaultOriginX = 50.0
	DefaultOriginY = 50.0

	DefaultTextWidth    = 200.0
	DefaultTextHeight   = 30.0
	DefaultFontSize     = 16.0
	DefaultFontFamily   = "sans-serif"
	DefaultTextColor    = "#000000"
	DefaultImageWidth   = 100.0
	DefaultImageHeight  = 100.0
	DefaultShapeWidth   = 100.0
	DefaultShapeHeight  = 100.0
	DefaultShapeFill    = "#cccccc"
	DefaultTextContent  = "New text"
	DefaultSideBgColor  = "#ffffff"
	DuplicateOffset     = 20.0
)

// Element is one positioned visual unit on a card side. Coordinates are
// side-local with the origin at the top-left corner.
//
// The JSON form is the persisted element record and must round-trip without loss.
type Element struct {
	ID              string      `json:"id"`
	Kind            ElementKind `json:"type"`
	Content         string      `json:"content"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	FontSize        float64     `json:"fontSize,omitempty"`
	FontFamily      string      `json:"fontFamily,omitempty"`
	FontWeight      string      `json:"fontWeight,omitempty"`
	FontStyle       string      `json:"fontStyle,omitempty"`
	Color           string      `json:"color,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Rotation        float64     `json:"rotation"`
	ZIndex          int         `json:"zIndex"`
}

// NewElement builds an element of the given kind with its kind defaults at the
// default origin. shape is only consulted for shape elements and falls back to
// a rectangle when empty.
func NewElement(id string, kind ElementKind, shape ShapeVariant) (Element, error) {
	el := Element{
		ID:   id,
		Kind: kind,
		X:    DefaultOriginX,
		Y:    DefaultOriginY,
	}

	switch kind {
	case KindText:
		el.Width = DefaultTextWidth
		el.Height = DefaultTextHeight
		el.FontSize = DefaultFontSize
		el.FontFamily = DefaultFontFamily
		el.Color = DefaultTextColor
		el.Content = DefaultTextContent
	case KindImage:
		el.Width = DefaultImageWidth
		el.Height = DefaultImageHeight
	case KindShape:
		if shape == "" {
			shape = ShapeRectangle
		}
		if !shape.Valid() {
			return Element{}, fmt.Errorf("%w: %q", ErrInvalidShapeVariant, shape)
		}
		el.Width = DefaultShapeWidth
		el.Height = DefaultShapeHeight
		el.BackgroundColor = DefaultShapeFill
		el.Content = string(shape)
	default:
		return Element{}, fmt.Errorf("%w: %q", ErrInvalidElementKind, kind)
	}

	return el, nil
}

// Shape returns the shape variant of a shape element.
func (e Element) Shape() ShapeVariant {
	return ShapeVariant(e.Content)
}

// Validate checks the element on its own. Id uniqueness is a side-level concern.
func (e Element) Validate() error {
	if e.ID == "" {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if !e.Kind.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown kind %q", e.Kind), ErrInvalidElementKind)
	}
	if e.Kind == KindShape && !e.Shape().Valid() {
		return NewValidationError("content", fmt.Sprintf("unknown shape %q", e.Content), ErrInvalidShapeVariant)
	}
	if e.Width < 0 || e.Height < 0 {
		return NewValidationError("size", "width and height cannot be negative", nil)
	}
	return nil
}

// ElementPatch carries a partial attribute update. Nil fields are left untouched.
type ElementPatch struct {
	Content         *string  `json:"content,omitempty"`
	X               *float64 `json:"x,omitempty"`
	Y               *float64 `json:"y,omitempty"`
	Width           *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height          *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	FontSize        *float64 `json:"fontSize,omitempty" validate:"omitempty,gt=0"`
	FontFamily      *string  `json:"fontFamily,omitempty"`
	FontWeight      *string  `json:"fontWeight,omitempty"`
	FontStyle       *string  `json:"fontStyle,omitempty"`
	Color           *string  `json:"color,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	Rotation        *float64 `json:"rotation,omitempty"`
	ZIndex          *int     `json:"zIndex,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ElementPatch) Empty() bool {
	return p == ElementPatch{}
}

// Apply returns a copy of el with the supplied attributes replaced.
func (p ElementPatch) Apply(el Element) Element {
	if p.Content != nil {
		el.Content = *p.Content
	}
	if p.X != nil {
		el.X = *p.X
	}
	if p.Y != nil {
		el.Y = *p.Y
	}
	if p.Width != nil {
		el.Width = *p.Width
	}
	if p.Height != nil {
		el.Height = *p.Height
	}
	if p.FontSize != nil {
		el.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		el.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		el.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		el.FontStyle = *p.FontStyle
	}
	if p.Color != nil {
		el.Color = *p.Color
	}
	if p.BackgroundColor != nil {
		el.BackgroundColor = *p.BackgroundColor
	}
	if p.Rotation != nil {
		el.Rotation = *p.Rotation
	}
	if p.ZIndex != nil {
		el.ZIndex = *p.ZIndex
	}
	return el
}

// MoveTo builds a patch that only changes the element origin.
func MoveTo(x, y float64) ElementPatch {
	return ElementPatch{X: &x, Y: &y}
}
