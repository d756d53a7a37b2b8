package editor

import (
	"fmt"

	"github.com/phrazzld/cardstock/internal/domain"
)

// The functions in this file are pure transforms: they never modify the card
// they are given and always return a new card value.

// AddElement appends a new element of kind to the named side. The element gets
// its kind defaults and zIndex = element count + 1.
func AddElement(
	card domain.Card,
	side domain.SideName,
	kind domain.ElementKind,
	shape domain.ShapeVariant,
	id string,
) (domain.Card, domain.Element, error) {
	s := card.Side(side)
	if s.Has(id) {
		return card.Clone(), domain.Element{}, fmt.Errorf("%w: %q", domain.ErrDuplicateElementID, id)
	}

	el, err := domain.NewElement(id, kind, shape)
	if err != nil {
		return card.Clone(), domain.Element{}, err
	}
	el.ZIndex = len(s.Elements) + 1

	s = s.Clone()
	s.Elements = append(s.Elements, el)
	return card.WithSide(side, s), el, nil
}

// UpdateElement replaces the patched attributes of element id. It reports false
// and returns an unchanged copy when id is not on the side.
func UpdateElement(card domain.Card, side domain.SideName, id string, patch domain.ElementPatch) (domain.Card, bool) {
	s := card.Side(side)
	el, idx, ok := s.Find(id)
	if !ok {
		return card.Clone(), false
	}

	s = s.Clone()
	s.Elements[idx] = patch.Apply(el)
	return card.WithSide(side, s), true
}

// DeleteElement removes element id from the side.
func DeleteElement(card domain.Card, side domain.SideName, id string) (domain.Card, bool) {
	s := card.Side(side)
	_, idx, ok := s.Find(id)
	if !ok {
		return card.Clone(), false
	}

	elements := make([]domain.Element, 0, len(s.Elements)-1)
	elements = append(elements, s.Elements[:idx]...)
	elements = append(elements, s.Elements[idx+1:]...)
	s.Elements = elements
	return card.WithSide(side, s), true
}

// DuplicateElement copies element id under newID, shifted by DuplicateOffset on
// both axes and painted above every existing element.
func DuplicateElement(
	card domain.Card,
	side domain.SideName,
	id, newID string,
) (domain.Card, domain.Element, error) {
	s := card.Side(side)
	src, _, ok := s.Find(id)
	if !ok {
		return card.Clone(), domain.Element{}, fmt.Errorf("element %q: %w", id, ErrElementNotFound)
	}
	if s.Has(newID) {
		return card.Clone(), domain.Element{}, fmt.Errorf("%w: %q", domain.ErrDuplicateElementID, newID)
	}

	dup := src
	dup.ID = newID
	dup.X += domain.DuplicateOffset
	dup.Y += domain.DuplicateOffset
	dup.ZIndex = len(s.Elements) + 1

	s = s.Clone()
	s.Elements = append(s.Elements, dup)
	return card.WithSide(side, s), dup, nil
}

// SetBackground replaces the side background color and image.
func SetBackground(card domain.Card, side domain.SideName, color, image string) domain.Card {
	s := card.Side(side).Clone()
	s.BackgroundColor = color
	s.BackgroundImage = image
	return card.WithSide(side, s)
}

// SetTitle returns a copy of card with a new title.
func SetTitle(card domain.Card, title string) domain.Card {
	out := card.Clone()
	out.Title = title
	return out
}
