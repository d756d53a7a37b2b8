package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/service"
)

type sessionFixture struct {
	owner   uuid.UUID
	editing *fakeEditing
	handler *SessionHandler
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	owner := uuid.New()
	editing := newFakeEditing(t, owner)
	return &sessionFixture{
		owner:   owner,
		editing: editing,
		handler: NewSessionHandler(editing, testLogger()),
	}
}

// call invokes h for the fixture's session as the owner.
func (f *sessionFixture) call(h http.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	all := map[string]string{"sid": f.editing.id.String()}
	for k, v := range params {
		all[k] = v
	}
	rec := httptest.NewRecorder()
	h(rec, newRequest(method, target, body, f.owner, all))
	return rec
}

func TestNewSessionHandlerPanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { NewSessionHandler(nil, testLogger()) })
	assert.Panics(t, func() { NewSessionHandler(newFakeEditing(t, uuid.New()), nil) })
}

func TestOpenSession(t *testing.T) {
	f := newSessionFixture(t)
	cardID := f.editing.session.Document().ID

	t.Run("owner opens", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.OpenSession(rec, newRequest(http.MethodPost, "/", "", f.owner, map[string]string{"id": cardID.String()}))

		require.Equal(t, http.StatusCreated, rec.Code)
		view := decodeJSON[service.SessionView](t, rec)
		assert.Equal(t, f.editing.id, view.ID)
		assert.Equal(t, domain.SideFront, view.ActiveSide)
		assert.False(t, view.Dirty)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.OpenSession(rec, newRequest(http.MethodPost, "/", "", uuid.New(), map[string]string{"id": cardID.String()}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown card", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.OpenSession(rec, newRequest(http.MethodPost, "/", "", f.owner, map[string]string{"id": uuid.NewString()}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Card not found", decodeError(t, rec).Error)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.OpenSession(rec, newRequest(http.MethodPost, "/", "", uuid.Nil, map[string]string{"id": cardID.String()}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessionEditingFlow(t *testing.T) {
	f := newSessionFixture(t)
	h := f.handler

	rec := f.call(h.AddElement, http.MethodPost, "/", `{"type":"shape","shape":"circle"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decodeJSON[ElementResponse](t, rec)
	assert.Equal(t, domain.KindShape, added.Element.Kind)
	assert.Equal(t, string(domain.ShapeCircle), added.Element.Content)
	assert.Equal(t, added.Element.ID, added.Session.SelectedID)
	assert.True(t, added.Session.Dirty)
	assert.Equal(t, 2, added.Session.HistoryLength)
	id := added.Element.ID

	rec = f.call(h.UpdateElement, http.MethodPatch, "/?commit=true", `{"x":40,"y":50}`, map[string]string{"eid": id})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeJSON[service.SessionView](t, rec)
	assert.Equal(t, 3, view.HistoryLength)
	el, _, ok := view.Card.Front.Find(id)
	require.True(t, ok)
	assert.Equal(t, 40.0, el.X)
	assert.Equal(t, 50.0, el.Y)

	rec = f.call(h.UpdateElement, http.MethodPatch, "/", `{"content":"draft"}`, map[string]string{"eid": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeJSON[service.SessionView](t, rec).HistoryLength)

	rec = f.call(h.Undo, http.MethodPost, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeJSON[service.SessionView](t, rec)
	assert.True(t, view.CanRedo)

	rec = f.call(h.Redo, http.MethodPost, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJSON[service.SessionView](t, rec).CanRedo)

	rec = f.call(h.DuplicateElement, http.MethodPost, "/", "", map[string]string{"eid": id})
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decodeJSON[ElementResponse](t, rec)
	assert.NotEqual(t, id, dup.Element.ID)
	assert.Len(t, dup.Session.Card.Front.Elements, 2)

	rec = f.call(h.DeleteElement, http.MethodDelete, "/", "", map[string]string{"eid": dup.Element.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[service.SessionView](t, rec).Card.Front.Elements, 1)

	rec = f.call(h.Save, http.MethodPost, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJSON[service.SessionView](t, rec).Dirty)
	assert.Equal(t, 1, f.editing.saves)
}

func TestSessionSideSelectAndBackground(t *testing.T) {
	f := newSessionFixture(t)
	h := f.handler

	rec := f.call(h.SetSide, http.MethodPost, "/", `{"side":"back"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SideBack, decodeJSON[service.SessionView](t, rec).ActiveSide)

	rec = f.call(h.SetSide, http.MethodPost, "/", `{"side":"middle"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.call(h.SetBackground, http.MethodPost, "/", `{"color":"#112233"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeJSON[service.SessionView](t, rec)
	assert.Equal(t, "#112233", view.Card.Back.BackgroundColor)
	assert.Equal(t, domain.DefaultSideBgColor, view.Card.Front.BackgroundColor)

	rec = f.call(h.SetTitle, http.MethodPost, "/", `{"title":"Rivers"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rivers", decodeJSON[service.SessionView](t, rec).Card.Title)

	rec = f.call(h.AddElement, http.MethodPost, "/", `{"type":"text"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeJSON[ElementResponse](t, rec).Element.ID

	rec = f.call(h.Select, http.MethodPost, "/", `{"elementId":""}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeJSON[service.SessionView](t, rec).SelectedID)

	rec = f.call(h.Select, http.MethodPost, "/", `{"elementId":"`+id+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeJSON[service.SessionView](t, rec).SelectedID)

	rec = f.call(h.Select, http.MethodPost, "/", `{"elementId":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionPointerDrag(t *testing.T) {
	f := newSessionFixture(t)
	h := f.handler

	rec := f.call(h.AddElement, http.MethodPost, "/", `{"type":"text"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decodeJSON[ElementResponse](t, rec)
	id := added.Element.ID
	start := added.Session.HistoryLength

	rec = f.call(h.Pointer, http.MethodPost, "/",
		`{"action":"down","elementId":"`+id+`","x":55,"y":55}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeJSON[service.SessionView](t, rec).Dragging)

	rec = f.call(h.Pointer, http.MethodPost, "/", `{"action":"move","x":105,"y":85}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.call(h.Pointer, http.MethodPost, "/", `{"action":"up"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeJSON[service.SessionView](t, rec)
	assert.False(t, view.Dragging)
	assert.Equal(t, start+1, view.HistoryLength)
	el, _, ok := view.Card.Front.Find(id)
	require.True(t, ok)
	assert.Equal(t, 100.0, el.X)
	assert.Equal(t, 80.0, el.Y)

	rec = f.call(h.Pointer, http.MethodPost, "/", `{"action":"down"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerErrors(t *testing.T) {
	f := newSessionFixture(t)
	h := f.handler

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		body           string
		target         string
		params         map[string]string
		expectedStatus int
	}{
		{"update unknown element", h.UpdateElement, `{"x":1}`, "/", map[string]string{"eid": "nope"}, http.StatusNotFound},
		{"empty patch", h.UpdateElement, `{}`, "/", map[string]string{"eid": "nope"}, http.StatusBadRequest},
		{"negative width", h.UpdateElement, `{"width":-1}`, "/", map[string]string{"eid": "nope"}, http.StatusBadRequest},
		{"bad commit flag", h.UpdateElement, `{"x":1}`, "/?commit=maybe", map[string]string{"eid": "nope"}, http.StatusBadRequest},
		{"delete unknown element", h.DeleteElement, "", "/", map[string]string{"eid": "nope"}, http.StatusNotFound},
		{"duplicate unknown element", h.DuplicateElement, "", "/", map[string]string{"eid": "nope"}, http.StatusNotFound},
		{"unknown element type", h.AddElement, `{"type":"video"}`, "/", nil, http.StatusBadRequest},
		{"unknown session", h.GetSession, "", "/", map[string]string{"sid": uuid.NewString()}, http.StatusNotFound},
		{"malformed session id", h.Commit, "", "/", map[string]string{"sid": "abc"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.call(tt.handler, http.MethodPost, tt.target, tt.body, tt.params)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestSessionSaveFailureKeepsSession(t *testing.T) {
	f := newSessionFixture(t)
	f.editing.saveErr = service.NewServiceError("editing", "save", "failed to save card", errors.New("db down"))

	rec := f.call(f.handler.AddElement, http.MethodPost, "/", `{"type":"text"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.call(f.handler.Save, http.MethodPost, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to save card", decodeError(t, rec).Error)

	rec = f.call(f.handler.GetSession, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeJSON[service.SessionView](t, rec).Dirty)
}

func TestSessionForeignUser(t *testing.T) {
	f := newSessionFixture(t)

	rec := httptest.NewRecorder()
	f.handler.GetSession(rec, newRequest(http.MethodGet, "/", "", uuid.New(),
		map[string]string{"sid": f.editing.id.String()}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCloseSession(t *testing.T) {
	f := newSessionFixture(t)

	rec := f.call(f.handler.CloseSession, http.MethodDelete, "/", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.call(f.handler.GetSession, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
