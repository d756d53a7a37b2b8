package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/editor"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/service"
)

// SessionHandler handles card editing session requests.
type SessionHandler struct {
	editing service.EditingService
	logger  *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(editing service.EditingService, logger *slog.Logger) *SessionHandler {
	if editing == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("editing service cannot be nil for SessionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}
	return &SessionHandler{
		editing: editing,
		logger:  logger.With(slog.String("component", "session_handler")),
	}
}

// OpenSession handles POST /cards/{id}/sessions.
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	view, err := h.editing.Open(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open editing session")
		return
	}

	log.Debug("editing session opened",
		slog.String("card_id", cardID.String()),
		slog.String("session_id", view.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, view)
}

// GetSession handles GET /sessions/{sid}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	view, err := h.editing.Get(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// CloseSession handles DELETE /sessions/{sid}. Unsaved changes are discarded.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.editing.Close(r.Context(), userID, sessionID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSide handles POST /sessions/{sid}/side.
func (h *SessionHandler) SetSide(w http.ResponseWriter, r *http.Request) {
	var req SideRequest
	h.mutate(w, r, &req, func(s *editor.Session) error {
		return s.SetActiveSide(domain.SideName(req.Side))
	})
}

// Select handles POST /sessions/{sid}/select.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	h.mutate(w, r, &req, func(s *editor.Session) error {
		if req.ElementID == "" {
			s.ClearSelection()
			return nil
		}
		if !s.Select(req.ElementID) {
			return service.ErrElementNotFound
		}
		return nil
	})
}

// AddElement handles POST /sessions/{sid}/elements. The new element is
// selected and returned alongside the session.
func (h *SessionHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", log)
	if !ok {
		return
	}
	var req AddElementRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	var created domain.Element
	view, err := h.editing.Do(r.Context(), userID, sessionID, func(s *editor.Session) error {
		el, err := s.AddElement(domain.ElementKind(req.Type), domain.ShapeVariant(req.Shape))
		if err != nil {
			return err
		}
		created = el
		return nil
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add element")
		return
	}

	log.Debug("element added",
		slog.String("session_id", sessionID.String()),
		slog.String("element_id", created.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, ElementResponse{Element: created, Session: view})
}

// UpdateElement handles PATCH /sessions/{sid}/elements/{eid}. Updates are not
// recorded in history unless the commit query parameter is true, so a client
// can stream intermediate edits and commit once.
func (h *SessionHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	commit, err := parseBoolQuery(r, "commit")
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("commit", "must be a boolean", domain.ErrValidation), "")
		return
	}

	elementID := chi.URLParam(r, "eid")
	var patch domain.ElementPatch
	h.mutate(w, r, &patch, func(s *editor.Session) error {
		if patch.Empty() {
			return domain.NewValidationError("patch", "must change at least one field", domain.ErrValidation)
		}
		if !s.UpdateElement(elementID, patch) {
			return service.ErrElementNotFound
		}
		if commit {
			s.Commit()
		}
		return nil
	})
}

// DeleteElement handles DELETE /sessions/{sid}/elements/{eid}.
func (h *SessionHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	elementID := chi.URLParam(r, "eid")
	h.mutate(w, r, nil, func(s *editor.Session) error {
		if !s.DeleteElement(elementID) {
			return service.ErrElementNotFound
		}
		return nil
	})
}

// DuplicateElement handles POST /sessions/{sid}/elements/{eid}/duplicate.
func (h *SessionHandler) DuplicateElement(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", log)
	if !ok {
		return
	}

	var copied domain.Element
	view, err := h.editing.Do(r.Context(), userID, sessionID, func(s *editor.Session) error {
		el, err := s.DuplicateElement(chi.URLParam(r, "eid"))
		if err != nil {
			return err
		}
		copied = el
		return nil
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to duplicate element")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, ElementResponse{Element: copied, Session: view})
}

// Pointer handles POST /sessions/{sid}/pointer, one drag gesture event per call.
func (h *SessionHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	h.mutate(w, r, &req, func(s *editor.Session) error {
		p := editor.Point{X: req.X, Y: req.Y}
		switch req.Action {
		case "down":
			s.PointerDown(req.ElementID, p)
		case "move":
			s.PointerMove(p)
		case "up":
			s.PointerUp()
		case "leave":
			s.PointerLeave()
		}
		return nil
	})
}

// SetBackground handles POST /sessions/{sid}/background.
func (h *SessionHandler) SetBackground(w http.ResponseWriter, r *http.Request) {
	var req BackgroundRequest
	h.mutate(w, r, &req, func(s *editor.Session) error {
		s.SetBackground(req.Color, req.Image)
		return nil
	})
}

// SetTitle handles POST /sessions/{sid}/title.
func (h *SessionHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	h.mutate(w, r, &req, func(s *editor.Session) error {
		s.SetTitle(req.Title)
		return nil
	})
}

// Commit handles POST /sessions/{sid}/commit.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(s *editor.Session) error {
		s.Commit()
		return nil
	})
}

// Undo handles POST /sessions/{sid}/undo. Undo with nothing to undo is a no-op.
func (h *SessionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(s *editor.Session) error {
		s.Undo()
		return nil
	})
}

// Redo handles POST /sessions/{sid}/redo.
func (h *SessionHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(s *editor.Session) error {
		s.Redo()
		return nil
	})
}

// Save handles POST /sessions/{sid}/save.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", log)
	if !ok {
		return
	}

	view, err := h.editing.Save(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save card")
		return
	}

	log.Info("card saved",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", view.Card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// mutate decodes the request body into req when req is non-nil, runs fn
// against the session named in the path and responds with the new state.
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request, req interface{}, fn service.SessionFunc) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sid", log)
	if !ok {
		return
	}
	if req != nil && !decodeAndValidate(w, r, req, log) {
		return
	}

	view, err := h.editing.Do(r.Context(), userID, sessionID, fn)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			log.Debug("session operation rejected", slog.String("field", verr.Field))
		}
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
