package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/store"
)

const cardColumns = `id, user_id, deck_id, title, front, back, position, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a card store on db, which may be a *sql.DB or
// a *sql.Tx. If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

// GetByID implements store.CardStore.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// ListByDeck implements store.CardStore.
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE deck_id = $1 ORDER BY position, created_at, id`, deckID)
	if err != nil {
		log.Error("failed to list deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := []domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed deck cards",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// CreateMultiple implements store.CardStore. Every card is validated before
// anything is written.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return store.NewStoreError("card", "create", "validation failed",
				fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
		}
	}

	const query = `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, card := range cards {
		front, back, err := encodeSides(card.Front, card.Back)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, query,
			card.ID, card.UserID, card.DeckID, card.Title,
			front, back, card.Position, card.CreatedAt, card.UpdatedAt)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return MapError(err)
		}
	}

	log.Info("cards created", slog.Int("count", len(cards)))
	return nil
}

// UpdateContent implements store.CardStore.
func (s *PostgresCardStore) UpdateContent(ctx context.Context, id uuid.UUID, title string, front, back domain.Side) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := front.Validate(); err != nil {
		return store.NewStoreError("card", "update", "invalid front side",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	if err := back.Validate(); err != nil {
		return store.NewStoreError("card", "update", "invalid back side",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	frontJSON, backJSON, err := encodeSides(front, back)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE cards SET title = $1, front = $2, back = $3, updated_at = $4 WHERE id = $5`,
		title, frontJSON, backJSON, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Debug("card content updated", slog.String("card_id", id.String()))
	return nil
}

// Delete implements store.CardStore.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Info("card deleted", slog.String("card_id", id.String()))
	return nil
}

// NextPosition implements store.CardStore.
func (s *PostgresCardStore) NextPosition(ctx context.Context, deckID uuid.UUID) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM cards WHERE deck_id = $1`, deckID).Scan(&next)
	if err != nil {
		return 0, MapError(err)
	}
	return next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var front, back []byte
	if err := row.Scan(
		&card.ID, &card.UserID, &card.DeckID, &card.Title,
		&front, &back, &card.Position, &card.CreatedAt, &card.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if card.Front, err = domain.DecodeSide(front); err != nil {
		return nil, fmt.Errorf("card %s front: %w", card.ID, err)
	}
	if card.Back, err = domain.DecodeSide(back); err != nil {
		return nil, fmt.Errorf("card %s back: %w", card.ID, err)
	}
	return &card, nil
}

// encodeSides renders both sides as JSON text for the JSONB columns.
func encodeSides(front, back domain.Side) (string, string, error) {
	f, err := json.Marshal(front)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode front side: %w", err)
	}
	b, err := json.Marshal(back)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode back side: %w", err)
	}
	return string(f), string(b), nil
}
