package editor

import "github.com/phrazzld/cardstock/internal/domain"

// History is a linear undo/redo log of card snapshots. The snapshot at the
// cursor is the current state; 0 <= cursor < Len() always holds.
//
// Every stored snapshot is a deep copy, and every returned card is a fresh
// copy, so later writes by a caller can never reach into the log.
type History struct {
	snapshots []domain.Card
	cursor    int
	limit     int
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithLimit bounds the number of retained snapshots. When a commit exceeds the
// bound the oldest snapshots are dropped. A limit below 2 disables the bound.
func WithLimit(n int) HistoryOption {
	return func(h *History) {
		if n >= 2 {
			h.limit = n
		}
	}
}

// NewHistory creates a history seeded with initial as snapshot 0.
func NewHistory(initial domain.Card, opts ...HistoryOption) *History {
	h := &History{
		snapshots: []domain.Card{initial.Clone()},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Commit appends card as a new snapshot after discarding every snapshot beyond
// the cursor, and moves the cursor to it. Each call is one undo step.
func (h *History) Commit(card domain.Card) {
	h.snapshots = append(h.snapshots[:h.cursor+1], card.Clone())
	h.cursor = len(h.snapshots) - 1

	if h.limit > 0 && len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		kept := make([]domain.Card, h.limit)
		copy(kept, h.snapshots[drop:])
		h.snapshots = kept
		h.cursor -= drop
	}
}

// Undo steps the cursor back. It returns false and leaves the cursor alone
// when there is nothing to undo.
func (h *History) Undo() (domain.Card, bool) {
	if !h.CanUndo() {
		return domain.Card{}, false
	}
	h.cursor--
	return h.snapshots[h.cursor].Clone(), true
}

// Redo steps the cursor forward. It returns false when the cursor is already
// at the newest snapshot.
func (h *History) Redo() (domain.Card, bool) {
	if !h.CanRedo() {
		return domain.Card{}, false
	}
	h.cursor++
	return h.snapshots[h.cursor].Clone(), true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.snapshots)-1
}

// Current returns a copy of the snapshot at the cursor.
func (h *History) Current() domain.Card {
	return h.snapshots[h.cursor].Clone()
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Cursor returns the index of the current snapshot.
func (h *History) Cursor() int {
	return h.cursor
}
