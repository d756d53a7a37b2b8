package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
)

var (
	// ErrElementNotFound is returned when an operation names an element that is
	// not on the active side.
	ErrElementNotFound = errors.New("element not found")

	// ErrIDGeneratorExhausted is returned when the id generator keeps producing
	// empty or already used ids.
	ErrIDGeneratorExhausted = errors.New("element id generator produced no usable id")
)

// maxIDAttempts bounds how often mintID asks the generator for a fresh id.
const maxIDAttempts = 16

// Session is the editing state of one card: the current document, the active
// side, the selection, the pointer gesture and the undo history.
//
// A Session is not safe for concurrent use. Callers serialise access.
type Session struct {
	doc      domain.Card
	saved    domain.Card
	side     domain.SideName
	selected string
	drag     DragState
	history  *History
	newID    func() string
	logger   *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	historyLimit int
	newID        func() string
	logger       *slog.Logger
}

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) SessionOption {
	return func(c *sessionConfig) { c.historyLimit = n }
}

// WithIDGenerator overrides how element ids are minted.
func WithIDGenerator(fn func() string) SessionOption {
	return func(c *sessionConfig) { c.newID = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// NewSession opens an editing session on card. The front side is active, no
// element is selected and the history holds card as its only snapshot.
func NewSession(card domain.Card, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		doc:     card.Clone(),
		saved:   card.Clone(),
		side:    domain.SideFront,
		drag:    Idle{},
		history: NewHistory(card, WithLimit(cfg.historyLimit)),
		newID:   cfg.newID,
		logger: cfg.logger.With(
			slog.String("component", "edit_session"),
			slog.String("card_id", card.ID.String()),
		),
	}
}

// Document returns a copy of the current card.
func (s *Session) Document() domain.Card {
	return s.doc.Clone()
}

// ActiveSide returns the side currently being edited.
func (s *Session) ActiveSide() domain.SideName {
	return s.side
}

// Elements returns a copy of the active side's elements in insertion order.
func (s *Session) Elements() []domain.Element {
	return s.doc.Side(s.side).Clone().Elements
}

// Selected returns the selected element id.
func (s *Session) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// Drag returns the current pointer state.
func (s *Session) Drag() DragState {
	return s.drag
}

// CanUndo reports whether Undo would change the document.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change the document.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// History exposes the undo log for inspection.
func (s *Session) History() *History { return s.history }

// Dirty reports whether the document differs from the last saved content.
func (s *Session) Dirty() bool {
	return !sameContent(s.doc, s.saved)
}

// MarkSaved records doc as the persisted state. Only the title, sides and
// timestamps are taken from it; history is untouched.
func (s *Session) MarkSaved(doc domain.Card) {
	s.saved = doc.Clone()
	s.doc.UpdatedAt = doc.UpdatedAt
}

// SetActiveSide switches the edited side. The selection is cleared and any
// gesture is abandoned without recording history.
func (s *Session) SetActiveSide(name domain.SideName) error {
	if _, err := domain.ParseSideName(string(name)); err != nil {
		return err
	}
	if name == s.side {
		return nil
	}
	s.side = name
	s.selected = ""
	s.drag = Idle{}
	return nil
}

// Select makes id the single selected element. It reports false when id is not
// on the active side. Selecting never records history.
func (s *Session) Select(id string) bool {
	if !s.doc.Side(s.side).Has(id) {
		return false
	}
	s.selected = id
	s.drag = Idle{}
	return true
}

// ClearSelection deselects the selected element, if any.
func (s *Session) ClearSelection() {
	s.selected = ""
	s.drag = Idle{}
}

// AddElement adds an element to the active side, selects it and records one
// history step.
func (s *Session) AddElement(kind domain.ElementKind, shape domain.ShapeVariant) (domain.Element, error) {
	id, err := s.mintID()
	if err != nil {
		return domain.Element{}, err
	}
	doc, el, err := AddElement(s.doc, s.side, kind, shape, id)
	if err != nil {
		return domain.Element{}, err
	}
	s.apply(doc)
	s.selected = el.ID
	s.commit("add_element")
	return el, nil
}

// UpdateElement patches element id without recording history. Callers that
// want the change undoable call Commit afterwards.
func (s *Session) UpdateElement(id string, patch domain.ElementPatch) bool {
	doc, ok := UpdateElement(s.doc, s.side, id, patch)
	if !ok {
		return false
	}
	s.apply(doc)
	return true
}

// DeleteElement removes element id, clears the selection if it pointed at it,
// and records one history step.
func (s *Session) DeleteElement(id string) bool {
	doc, ok := DeleteElement(s.doc, s.side, id)
	if !ok {
		return false
	}
	s.apply(doc)
	if s.selected == id {
		s.selected = ""
	}
	if d, dragging := s.drag.(Dragging); dragging && d.ElementID == id {
		s.drag = Idle{}
	}
	s.commit("delete_element")
	return true
}

// DuplicateElement clones element id, selects the clone and records one
// history step.
func (s *Session) DuplicateElement(id string) (domain.Element, error) {
	cloneID, err := s.mintID()
	if err != nil {
		return domain.Element{}, err
	}
	doc, el, err := DuplicateElement(s.doc, s.side, id, cloneID)
	if err != nil {
		return domain.Element{}, err
	}
	s.apply(doc)
	s.selected = el.ID
	s.commit("duplicate_element")
	return el, nil
}

// UpdateSelected patches the selected element. No-op without a selection.
func (s *Session) UpdateSelected(patch domain.ElementPatch) bool {
	if s.selected == "" {
		return false
	}
	return s.UpdateElement(s.selected, patch)
}

// DeleteSelected deletes the selected element. No-op without a selection.
func (s *Session) DeleteSelected() bool {
	if s.selected == "" {
		return false
	}
	return s.DeleteElement(s.selected)
}

// DuplicateSelected duplicates the selected element. No-op without a selection.
func (s *Session) DuplicateSelected() (domain.Element, bool) {
	if s.selected == "" {
		return domain.Element{}, false
	}
	el, err := s.DuplicateElement(s.selected)
	if err != nil {
		return domain.Element{}, false
	}
	return el, true
}

// SetBackground changes the active side background and records one history step.
func (s *Session) SetBackground(color, image string) {
	s.apply(SetBackground(s.doc, s.side, color, image))
	s.commit("set_background")
}

// SetTitle changes the card title and records one history step.
func (s *Session) SetTitle(title string) {
	s.apply(SetTitle(s.doc, title))
	s.commit("set_title")
}

// Commit records the current document as one history step. It is how property
// edits made through UpdateElement become undoable.
func (s *Session) Commit() {
	s.commit("explicit")
}

// Undo restores the previous snapshot. It reports false at the oldest snapshot.
func (s *Session) Undo() bool {
	doc, ok := s.history.Undo()
	if !ok {
		s.logger.Debug("undo unavailable", slog.Int("cursor", s.history.Cursor()))
		return false
	}
	s.restore(doc)
	return true
}

// Redo reapplies the next snapshot. It reports false at the newest snapshot.
func (s *Session) Redo() bool {
	doc, ok := s.history.Redo()
	if !ok {
		s.logger.Debug("redo unavailable", slog.Int("cursor", s.history.Cursor()))
		return false
	}
	s.restore(doc)
	return true
}

// PointerDown starts a gesture on element id at pointer position p and selects
// it. Pressing on empty canvas (an id not on the active side) clears the
// selection and leaves the session idle.
func (s *Session) PointerDown(id string, p Point) bool {
	el, _, ok := s.doc.Side(s.side).Find(id)
	if !ok {
		s.ClearSelection()
		return false
	}
	s.selected = id
	s.drag = Dragging{
		ElementID: id,
		Offset:    p.Sub(Point{X: el.X, Y: el.Y}),
	}
	return true
}

// PointerMove moves the dragged element so that it keeps its press-time offset
// from the pointer. Positions are not clamped. History is not touched.
func (s *Session) PointerMove(p Point) bool {
	d, ok := s.drag.(Dragging)
	if !ok {
		return false
	}
	origin := p.Sub(d.Offset)
	if !s.UpdateElement(d.ElementID, domain.MoveTo(origin.X, origin.Y)) {
		s.drag = Idle{}
		return false
	}
	d.Moved = true
	s.drag = d
	return true
}

// PointerUp ends the gesture. It records one history step when the element was
// moved and reports whether it did.
func (s *Session) PointerUp() bool {
	d, ok := s.drag.(Dragging)
	s.drag = Idle{}
	if !ok || !d.Moved {
		return false
	}
	s.commit("drag")
	return true
}

// PointerLeave ends the gesture when the pointer leaves the editing surface.
func (s *Session) PointerLeave() bool {
	return s.PointerUp()
}

func (s *Session) apply(doc domain.Card) {
	s.doc = doc
}

func (s *Session) commit(reason string) {
	s.history.Commit(s.doc)
	s.logger.Debug("history commit",
		slog.String("reason", reason),
		slog.Int("cursor", s.history.Cursor()),
		slog.Int("length", s.history.Len()))
}

func (s *Session) restore(doc domain.Card) {
	s.doc = doc
	s.drag = Idle{}
	if s.selected != "" && !s.doc.Side(s.side).Has(s.selected) {
		s.selected = ""
	}
}

// mintID returns an id that is not yet used on the active side.
func (s *Session) mintID() (string, error) {
	side := s.doc.Side(s.side)
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && !side.Has(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDGeneratorExhausted, maxIDAttempts)
}

func sameContent(a, b domain.Card) bool {
	return a.Title == b.Title &&
		reflect.DeepEqual(a.Front, b.Front) &&
		reflect.DeepEqual(a.Back, b.Back)
}
