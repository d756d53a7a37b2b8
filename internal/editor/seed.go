package editor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
)

// Layout of the text element placed on each side of a card built from plain text.
const (
	seedMarginX = 20.0
	seedMarginY = 20.0
	seedWidth   = 320.0
	seedHeight  = 176.0
)

// NewCardFromText builds a card with one text element per side holding front
// and back. Empty text leaves that side blank.
func NewCardFromText(userID, deckID uuid.UUID, position int, front, back string) (*domain.Card, error) {
	card, err := domain.NewCard(userID, deckID, "", position)
	if err != nil {
		return nil, err
	}

	if card.Front, err = seedSide(front); err != nil {
		return nil, fmt.Errorf("front side: %w", err)
	}
	if card.Back, err = seedSide(back); err != nil {
		return nil, fmt.Errorf("back side: %w", err)
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

func seedSide(text string) (domain.Side, error) {
	side := domain.NewSide()
	text = strings.TrimSpace(text)
	if text == "" {
		return side, nil
	}

	el, err := domain.NewElement(uuid.NewString(), domain.KindText, "")
	if err != nil {
		return domain.Side{}, err
	}
	el.Content = text
	el.X = seedMarginX
	el.Y = seedMarginY
	el.Width = seedWidth
	el.Height = seedHeight
	el.ZIndex = 1
	side.Elements = append(side.Elements, el)
	return side, nil
}
