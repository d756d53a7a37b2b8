package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardPositionNegative is returned when a card position is below zero.
	ErrCardPositionNegative = errors.New("card position cannot be negative")
)

// Card is a two-sided index card. A card owns both of its sides; Clone must be
// used whenever a card value is retained past a mutation.
type Card struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Title     string    `json:"title,omitempty"`
	Front     Side      `json:"front"`
	Back      Side      `json:"back"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a blank card at position within a deck.
// Returns an error if validation fails.
func NewCard(userID, deckID uuid.UUID, title string, position int) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Title:     title,
		Front:     NewSide(),
		Back:      NewSide(),
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Position < 0 {
		return ErrCardPositionNegative
	}

	if err := c.Front.Validate(); err != nil {
		return err
	}

	return c.Back.Validate()
}

// Side returns the named side.
func (c Card) Side(name SideName) Side {
	if name == SideBack {
		return c.Back
	}
	return c.Front
}

// WithSide returns a copy of c with the named side replaced.
func (c Card) WithSide(name SideName, s Side) Card {
	out := c.Clone()
	if name == SideBack {
		out.Back = s.Clone()
	} else {
		out.Front = s.Clone()
	}
	return out
}

// Clone returns a deep copy of c that shares no element storage with it.
func (c Card) Clone() Card {
	out := c
	out.Front = c.Front.Clone()
	out.Back = c.Back.Clone()
	return out
}

// IsOwnedBy reports whether userID owns the card.
func (c *Card) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}
