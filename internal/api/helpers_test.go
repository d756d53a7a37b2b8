package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/editor"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/service"
	"github.com/phrazzld/cardstock/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request as the router would hand it to a handler: the
// user id and logger in the context and chi URL params resolved.
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = logger.WithContext(ctx, testLogger())
	if userID != uuid.Nil {
		ctx = shared.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// fakeEditing runs operations against one real editor session owned by owner.
type fakeEditing struct {
	mu      sync.Mutex
	id      uuid.UUID
	owner   uuid.UUID
	session *editor.Session
	saveErr error
	saves   int
	closed  bool
}

func newFakeEditing(t *testing.T, owner uuid.UUID) *fakeEditing {
	t.Helper()
	card, err := domain.NewCard(owner, uuid.New(), "Capitals", 0)
	require.NoError(t, err)
	next := 0
	return &fakeEditing{
		id:    uuid.New(),
		owner: owner,
		session: editor.NewSession(*card, editor.WithIDGenerator(func() string {
			next++
			return fmt.Sprintf("el-%d", next)
		})),
	}
}

func (f *fakeEditing) check(userID, sessionID uuid.UUID) error {
	if sessionID != f.id || f.closed {
		return service.ErrSessionNotFound
	}
	if userID != f.owner {
		return service.ErrNotOwned
	}
	return nil
}

func (f *fakeEditing) view() service.SessionView {
	selected, _ := f.session.Selected()
	_, dragging := f.session.Drag().(editor.Dragging)
	return service.SessionView{
		ID:            f.id,
		Card:          f.session.Document(),
		ActiveSide:    f.session.ActiveSide(),
		SelectedID:    selected,
		Dragging:      dragging,
		CanUndo:       f.session.CanUndo(),
		CanRedo:       f.session.CanRedo(),
		Dirty:         f.session.Dirty(),
		HistoryLength: f.session.History().Len(),
	}
}

func (f *fakeEditing) Open(_ context.Context, userID, cardID uuid.UUID) (service.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cardID != f.session.Document().ID {
		return service.SessionView{}, service.NewServiceError("editing", "open", "failed to load card", store.ErrCardNotFound)
	}
	if userID != f.owner {
		return service.SessionView{}, service.ErrNotOwned
	}
	return f.view(), nil
}

func (f *fakeEditing) Get(_ context.Context, userID, sessionID uuid.UUID) (service.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(userID, sessionID); err != nil {
		return service.SessionView{}, err
	}
	return f.view(), nil
}

func (f *fakeEditing) Do(_ context.Context, userID, sessionID uuid.UUID, fn service.SessionFunc) (service.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(userID, sessionID); err != nil {
		return service.SessionView{}, err
	}
	if err := fn(f.session); err != nil {
		return service.SessionView{}, err
	}
	return f.view(), nil
}

func (f *fakeEditing) Save(_ context.Context, userID, sessionID uuid.UUID) (service.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(userID, sessionID); err != nil {
		return service.SessionView{}, err
	}
	if f.saveErr != nil {
		return service.SessionView{}, f.saveErr
	}
	f.saves++
	f.session.MarkSaved(f.session.Document())
	return f.view(), nil
}

func (f *fakeEditing) Close(_ context.Context, userID, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(userID, sessionID); err != nil {
		return err
	}
	f.closed = true
	return nil
}

func (f *fakeEditing) SweepIdle(context.Context, time.Time) int { return 0 }

// fakePrints answers layout questions with the real layout package and
// records export requests.
type fakePrints struct {
	owner    uuid.UUID
	cards    int
	exports  []service.ExportRequest
	previews []layout.PrintSettings
	err      error
}

func (f *fakePrints) Layout(settings layout.PrintSettings) (layout.Capacity, error) {
	settings = settings.WithDefaults()
	capacity, err := layout.CalculateLayout(settings)
	if err != nil {
		return layout.Capacity{}, err
	}
	if !capacity.Fits() {
		return capacity, &layout.LayoutError{Settings: settings, Capacity: capacity}
	}
	return capacity, nil
}

func (f *fakePrints) Presets() layout.Presets { return layout.DefaultPresets() }

func (f *fakePrints) deck(userID uuid.UUID) ([]domain.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	if userID != f.owner {
		return nil, service.ErrNotOwned
	}
	cards := make([]domain.Card, f.cards)
	for i := range cards {
		c, _ := domain.NewCard(f.owner, uuid.New(), "", i)
		cards[i] = *c
	}
	return cards, nil
}

func (f *fakePrints) Plan(_ context.Context, userID, _ uuid.UUID, settings layout.PrintSettings) (layout.PrintJob, error) {
	cards, err := f.deck(userID)
	if err != nil {
		return layout.PrintJob{}, err
	}
	return layout.GeneratePrintPages(cards, settings.WithDefaults())
}

func (f *fakePrints) Export(ctx context.Context, userID, deckID uuid.UUID, req service.ExportRequest) (service.Export, error) {
	job, err := f.Plan(ctx, userID, deckID, req.Settings)
	if err != nil {
		return service.Export{}, err
	}
	f.exports = append(f.exports, req)
	if req.Format == service.FormatPNG {
		return service.Export{Data: []byte("png"), ContentType: service.ContentTypePNG, Pages: len(job.Pages)}, nil
	}
	return service.Export{
		Data:        []byte("%PDF-1.7"),
		ContentType: service.ContentTypePDF,
		Pages:       len(job.Pages),
		Cached:      len(f.exports) > 1,
	}, nil
}

func (f *fakePrints) Previews(
	ctx context.Context,
	userID, deckID uuid.UUID,
	settings layout.PrintSettings,
	_ float64,
) ([][]byte, error) {
	job, err := f.Plan(ctx, userID, deckID, settings)
	if err != nil {
		return nil, err
	}
	f.previews = append(f.previews, settings)
	out := make([][]byte, len(job.Pages))
	for i := range out {
		out[i] = []byte{byte(i)}
	}
	return out, nil
}

func (f *fakePrints) InvalidateDeck(context.Context, uuid.UUID) error { return nil }

// fakeImports creates one card per import and records the upload it saw.
type fakeImports struct {
	enabled bool
	upload  extraction.Upload
	err     error
}

func (f *fakeImports) Enabled() bool { return f.enabled }

func (f *fakeImports) Import(_ context.Context, userID, deckID uuid.UUID, upload extraction.Upload) ([]domain.Card, error) {
	f.upload = upload
	if f.err != nil {
		return nil, f.err
	}
	card, err := editor.NewCardFromText(userID, deckID, 0, "Front", "Back")
	if err != nil {
		return nil, err
	}
	return []domain.Card{*card}, nil
}
