package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/editor"
	"github.com/phrazzld/cardstock/internal/events"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/store"
)

// ImportService creates cards from uploaded documents.
type ImportService interface {
	// Import extracts front/back pairs from upload and appends one card per
	// pair to the end of the deck, all in one transaction.
	Import(ctx context.Context, userID, deckID uuid.UUID, upload extraction.Upload) ([]domain.Card, error)

	// Enabled reports whether an extractor is configured.
	Enabled() bool
}

type importServiceImpl struct {
	db        *sql.DB
	cards     store.CardStore
	extractor extraction.Extractor
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewImportService creates an ImportService. extractor and emitter may be
// nil; without an extractor every import fails with ErrImportUnavailable.
func NewImportService(
	db *sql.DB,
	cards store.CardStore,
	extractor extraction.Extractor,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ImportService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &importServiceImpl{
		db:        db,
		cards:     cards,
		extractor: extractor,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "import_service")),
	}, nil
}

// Enabled implements ImportService.
func (s *importServiceImpl) Enabled() bool {
	return s.extractor != nil
}

// Import implements ImportService.
func (s *importServiceImpl) Import(ctx context.Context, userID, deckID uuid.UUID, upload extraction.Upload) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("deck_id", deckID.String()),
		slog.String("filename", upload.Filename))

	if s.extractor == nil {
		return nil, ErrImportUnavailable
	}

	pairs, err := s.extractor.Extract(ctx, upload)
	if err != nil {
		log.Warn("extraction failed", slog.String("error", err.Error()))
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrNothingExtracted
	}

	var created []*domain.Card
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cards.WithTx(tx)

		existing, err := txCards.ListByDeck(ctx, deckID)
		if err != nil {
			return err
		}
		for i := range existing {
			if !existing[i].IsOwnedBy(userID) {
				return ErrNotOwned
			}
		}

		position, err := txCards.NextPosition(ctx, deckID)
		if err != nil {
			return err
		}

		created = make([]*domain.Card, 0, len(pairs))
		for i, pair := range pairs {
			card, err := editor.NewCardFromText(userID, deckID, position+i, pair.Front, pair.Back)
			if err != nil {
				return err
			}
			created = append(created, card)
		}
		return txCards.CreateMultiple(ctx, created)
	})
	if err != nil {
		log.Error("failed to store imported cards", slog.String("error", err.Error()))
		if errors.Is(err, ErrNotOwned) || errors.Is(err, store.ErrInvalidEntity) {
			return nil, err
		}
		return nil, NewServiceError("import", "create cards", "failed to store imported cards", err)
	}

	out := make([]domain.Card, len(created))
	ids := make([]uuid.UUID, len(created))
	for i, c := range created {
		out[i] = *c
		ids[i] = c.ID
	}

	log.Info("cards imported", slog.Int("count", len(out)))
	s.emitImported(ctx, userID, deckID, ids)
	return out, nil
}

func (s *importServiceImpl) emitImported(ctx context.Context, userID, deckID uuid.UUID, ids []uuid.UUID) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeCardsImported, events.CardsImportedPayload{
		DeckID:  deckID,
		UserID:  userID,
		CardIDs: ids,
	})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to publish cards imported event",
			slog.String("error", err.Error()))
	}
}
