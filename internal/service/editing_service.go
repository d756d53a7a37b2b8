package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/editor"
	"github.com/phrazzld/cardstock/internal/events"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/store"
)

// SessionView is a snapshot of an editing session returned to clients.
type SessionView struct {
	ID            uuid.UUID       `json:"id"`
	Card          domain.Card     `json:"card"`
	ActiveSide    domain.SideName `json:"activeSide"`
	SelectedID    string          `json:"selectedId,omitempty"`
	Dragging      bool            `json:"dragging"`
	CanUndo       bool            `json:"canUndo"`
	CanRedo       bool            `json:"canRedo"`
	Dirty         bool            `json:"dirty"`
	HistoryLength int             `json:"historyLength"`
}

// SessionFunc mutates a session. It runs while the session is locked.
type SessionFunc func(s *editor.Session) error

// EditingService manages in-memory editing sessions over persisted cards.
type EditingService interface {
	// Open loads cardID for userID and starts a session with a fresh history.
	Open(ctx context.Context, userID, cardID uuid.UUID) (SessionView, error)

	// Get returns the current state of a session.
	Get(ctx context.Context, userID, sessionID uuid.UUID) (SessionView, error)

	// Do runs fn against the session and returns the resulting state.
	Do(ctx context.Context, userID, sessionID uuid.UUID, fn SessionFunc) (SessionView, error)

	// Save persists the session document. On failure the session is left
	// exactly as it was.
	Save(ctx context.Context, userID, sessionID uuid.UUID) (SessionView, error)

	// Close discards a session without saving.
	Close(ctx context.Context, userID, sessionID uuid.UUID) error

	// SweepIdle closes sessions not used since now minus the idle timeout and
	// reports how many were closed.
	SweepIdle(ctx context.Context, now time.Time) int
}

// EditingConfig tunes session behaviour.
type EditingConfig struct {
	HistoryLimit int
	IdleTimeout  time.Duration
}

type sessionEntry struct {
	mu       sync.Mutex
	id       uuid.UUID
	userID   uuid.UUID
	session  *editor.Session
	lastUsed time.Time
	closed   bool
}

type editingServiceImpl struct {
	cards   store.CardStore
	emitter events.EventEmitter
	config  EditingConfig
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

// NewEditingService creates an EditingService. emitter may be nil.
func NewEditingService(
	cards store.CardStore,
	emitter events.EventEmitter,
	config EditingConfig,
	logger *slog.Logger,
) (EditingService, error) {
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 30 * time.Minute
	}

	return &editingServiceImpl{
		cards:    cards,
		emitter:  emitter,
		config:   config,
		logger:   logger.With(slog.String("component", "editing_service")),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}, nil
}

// Open implements EditingService.
func (s *editingServiceImpl) Open(ctx context.Context, userID, cardID uuid.UUID) (SessionView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return SessionView{}, err
		}
		log.Error("failed to load card for editing",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return SessionView{}, NewServiceError("editing", "open", "failed to load card", err)
	}
	if !card.IsOwnedBy(userID) {
		log.Warn("attempt to edit card owned by another user",
			slog.String("card_id", cardID.String()),
			slog.String("user_id", userID.String()))
		return SessionView{}, ErrNotOwned
	}

	entry := &sessionEntry{
		id:     uuid.New(),
		userID: userID,
		session: editor.NewSession(*card,
			editor.WithHistoryLimit(s.config.HistoryLimit),
			editor.WithLogger(s.logger)),
		lastUsed: s.now(),
	}

	s.mu.Lock()
	s.sessions[entry.id] = entry
	open := len(s.sessions)
	s.mu.Unlock()

	log.Info("editing session opened",
		slog.String("session_id", entry.id.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("open_sessions", open))
	return viewOf(entry), nil
}

// Get implements EditingService.
func (s *editingServiceImpl) Get(ctx context.Context, userID, sessionID uuid.UUID) (SessionView, error) {
	return s.Do(ctx, userID, sessionID, nil)
}

// Do implements EditingService.
func (s *editingServiceImpl) Do(ctx context.Context, userID, sessionID uuid.UUID, fn SessionFunc) (SessionView, error) {
	var view SessionView
	err := s.withSession(userID, sessionID, func(e *sessionEntry) error {
		if fn != nil {
			if err := fn(e.session); err != nil {
				if errors.Is(err, editor.ErrElementNotFound) {
					return ErrElementNotFound
				}
				return err
			}
		}
		view = viewOf(e)
		return nil
	})
	return view, err
}

// Save implements EditingService.
func (s *editingServiceImpl) Save(ctx context.Context, userID, sessionID uuid.UUID) (SessionView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var view SessionView
	var saved domain.Card
	err := s.withSession(userID, sessionID, func(e *sessionEntry) error {
		doc := e.session.Document()
		if err := s.cards.UpdateContent(ctx, doc.ID, doc.Title, doc.Front, doc.Back); err != nil {
			log.Error("failed to save card",
				slog.String("error", err.Error()),
				slog.String("session_id", sessionID.String()),
				slog.String("card_id", doc.ID.String()))
			if store.IsNotFoundError(err) || errors.Is(err, store.ErrInvalidEntity) {
				return err
			}
			return NewServiceError("editing", "save", "failed to persist card", err)
		}

		doc.UpdatedAt = s.now().UTC()
		e.session.MarkSaved(doc)
		saved = doc
		view = viewOf(e)
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}

	log.Info("card saved",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", saved.ID.String()))
	s.emitSaved(ctx, saved)
	return view, nil
}

func (s *editingServiceImpl) emitSaved(ctx context.Context, card domain.Card) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeCardSaved, events.CardSavedPayload{
		CardID: card.ID,
		DeckID: card.DeckID,
		UserID: card.UserID,
	})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to publish card saved event",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
	}
}

// Close implements EditingService.
func (s *editingServiceImpl) Close(ctx context.Context, userID, sessionID uuid.UUID) error {
	err := s.withSession(userID, sessionID, func(e *sessionEntry) error {
		e.closed = true
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Info("editing session closed",
		slog.String("session_id", sessionID.String()))
	return nil
}

// SweepIdle implements EditingService.
func (s *editingServiceImpl) SweepIdle(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.config.IdleTimeout)

	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	closed := 0
	for _, e := range entries {
		e.mu.Lock()
		idle := !e.closed && e.lastUsed.Before(cutoff)
		if idle {
			e.closed = true
		}
		e.mu.Unlock()
		if !idle {
			continue
		}

		s.mu.Lock()
		delete(s.sessions, e.id)
		s.mu.Unlock()
		closed++
	}

	if closed > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Info("closed idle editing sessions",
			slog.Int("count", closed))
	}
	return closed
}

// withSession locks the session, checks ownership and runs fn.
func (s *editingServiceImpl) withSession(userID, sessionID uuid.UUID, fn func(e *sessionEntry) error) error {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionNotFound
	}
	if e.userID != userID {
		return ErrNotOwned
	}
	e.lastUsed = s.now()
	return fn(e)
}

func viewOf(e *sessionEntry) SessionView {
	sess := e.session
	selected, _ := sess.Selected()
	_, dragging := sess.Drag().(editor.Dragging)
	return SessionView{
		ID:            e.id,
		Card:          sess.Document(),
		ActiveSide:    sess.ActiveSide(),
		SelectedID:    selected,
		Dragging:      dragging,
		CanUndo:       sess.CanUndo(),
		CanRedo:       sess.CanRedo(),
		Dirty:         sess.Dirty(),
		HistoryLength: sess.History().Len(),
	}
}
