package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
)

// CardStore defines the interface for card persistence. Sides are stored as
// structured records and must round-trip losslessly.
type CardStore interface {
	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns a deck's cards ordered by position, then creation
	// time. An unknown or empty deck yields an empty slice.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// CreateMultiple saves cards. It must run within a transaction (see
	// WithTx and RunInTransaction) to be atomic.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// UpdateContent replaces a card's title and both sides.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, title string, front, back domain.Side) error

	// Delete removes a card. Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// NextPosition returns one past the highest position in the deck, or 0
	// for an empty deck.
	NextPosition(ctx context.Context, deckID uuid.UUID) (int, error)

	// WithTx returns a CardStore that runs its statements in tx.
	//
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return cardStore.WithTx(tx).CreateMultiple(ctx, cards)
	//   })
	WithTx(tx *sql.Tx) CardStore
}
