package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/events"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/platform/rediscache"
	"github.com/phrazzld/cardstock/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCardStore is an in-memory store.CardStore.
type memCardStore struct {
	mu        sync.Mutex
	cards     map[uuid.UUID]domain.Card
	updates   int
	updateErr error
	listErr   error
	createErr error
}

func newMemCardStore(cards ...*domain.Card) *memCardStore {
	s := &memCardStore{cards: make(map[uuid.UUID]domain.Card)}
	for _, c := range cards {
		s.cards[c.ID] = c.Clone()
	}
	return s
}

var _ store.CardStore = (*memCardStore)(nil)

func (s *memCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	c = c.Clone()
	return &c, nil
}

func (s *memCardStore) ListByDeck(_ context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []domain.Card{}
	for _, c := range s.cards {
		if c.DeckID == deckID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *memCardStore) CreateMultiple(_ context.Context, cards []*domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, c := range cards {
		s.cards[c.ID] = c.Clone()
	}
	return nil
}

func (s *memCardStore) UpdateContent(_ context.Context, id uuid.UUID, title string, front, back domain.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	c, ok := s.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	c.Title = title
	c.Front = front.Clone()
	c.Back = back.Clone()
	s.cards[id] = c
	s.updates++
	return nil
}

func (s *memCardStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(s.cards, id)
	return nil
}

func (s *memCardStore) NextPosition(_ context.Context, deckID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 0
	for _, c := range s.cards {
		if c.DeckID == deckID && c.Position >= next {
			next = c.Position + 1
		}
	}
	return next, nil
}

func (s *memCardStore) WithTx(*sql.Tx) store.CardStore { return s }

func (s *memCardStore) get(id uuid.UUID) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cards[id].Clone()
}

// recordingEmitter collects emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

// memCache is an in-memory ExportCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) InvalidateDeck(_ context.Context, deckID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := fmt.Sprintf("%s:%s:", rediscache.KeyPrefix, deckID)
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// stubPDF writes a marker document and counts renders.
type stubPDF struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubPDF) Render(_ context.Context, job layout.PrintJob, w io.Writer) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "%%PDF pages=%d", len(job.Pages))
	return err
}

// stubPages renders "page-<index>@<scale>" and counts renders.
type stubPages struct {
	mu    sync.Mutex
	calls int
}

func (r *stubPages) RenderPageBytes(_ context.Context, job layout.PrintJob, index int, scale float64) ([]byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if index < 0 || index >= len(job.Pages) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return []byte(fmt.Sprintf("page-%d@%g", index, scale)), nil
}

func (r *stubPages) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// stubExtractor returns canned pairs.
type stubExtractor struct {
	pairs []extraction.Pair
	err   error
}

func (e stubExtractor) Extract(context.Context, extraction.Upload) ([]extraction.Pair, error) {
	return e.pairs, e.err
}

func newOwnedCard(userID, deckID uuid.UUID, position int) *domain.Card {
	card, err := domain.NewCard(userID, deckID, fmt.Sprintf("card %d", position), position)
	if err != nil {
		panic(err)
	}
	return card
}
