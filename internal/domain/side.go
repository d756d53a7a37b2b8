package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SideName selects the front or back face of a card.
type SideName string

const (
	SideFront SideName = "front"
	SideBack  SideName = "back"
)

// ParseSideName converts s into a SideName.
func ParseSideName(s string) (SideName, error) {
	switch SideName(s) {
	case SideFront, SideBack:
		return SideName(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Side is one face of a card. It owns its elements exclusively: no element
// value is shared between sides or cards.
type Side struct {
	BackgroundColor string    `json:"backgroundColor"`
	BackgroundImage string    `json:"backgroundImage,omitempty"`
	Elements        []Element `json:"elements"`
}

// NewSide returns an empty side with the default background.
func NewSide() Side {
	return Side{BackgroundColor: DefaultSideBgColor, Elements: []Element{}}
}

// Clone returns a deep copy of s.
func (s Side) Clone() Side {
	out := s
	out.Elements = make([]Element, len(s.Elements))
	copy(out.Elements, s.Elements)
	return out
}

// Find returns the element with id and its index.
func (s Side) Find(id string) (Element, int, bool) {
	for i, el := range s.Elements {
		if el.ID == id {
			return el, i, true
		}
	}
	return Element{}, -1, false
}

// Has reports whether an element with id exists on s.
func (s Side) Has(id string) bool {
	_, _, ok := s.Find(id)
	return ok
}

// PaintOrder returns the elements sorted by ascending zIndex. Elements with
// equal zIndex keep their insertion order.
func (s Side) PaintOrder() []Element {
	out := make([]Element, len(s.Elements))
	copy(out, s.Elements)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// IDs lists the element ids in insertion order.
func (s Side) IDs() []string {
	ids := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		ids[i] = el.ID
	}
	return ids
}

// Validate checks every element and the uniqueness of element ids.
func (s Side) Validate() error {
	seen := make(map[string]struct{}, len(s.Elements))
	for _, el := range s.Elements {
		if err := el.Validate(); err != nil {
			return err
		}
		if _, dup := seen[el.ID]; dup {
			return NewValidationError("elements", fmt.Sprintf("id %q used twice", el.ID), ErrDuplicateElementID)
		}
		seen[el.ID] = struct{}{}
	}
	return nil
}

// MarshalJSON always writes an elements array, never null.
func (s Side) MarshalJSON() ([]byte, error) {
	type side Side
	out := side(s)
	if out.Elements == nil {
		out.Elements = []Element{}
	}
	return json.Marshal(out)
}

// DecodeSide parses a persisted side record.
func DecodeSide(data []byte) (Side, error) {
	if len(data) == 0 {
		return NewSide(), nil
	}
	var s Side
	if err := json.Unmarshal(data, &s); err != nil {
		return Side{}, fmt.Errorf("%w: %v", ErrInvalidCardContent, err)
	}
	if s.Elements == nil {
		s.Elements = []Element{}
	}
	return s, nil
}
