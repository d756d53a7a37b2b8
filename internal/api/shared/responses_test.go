package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/platform/logger"
)

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}

func TestRespondWithBytes(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithBytes(w, r, http.StatusOK, "application/pdf", []byte("%PDF"))

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetTraceID(r.Context(), ""))

	RespondWithError(w, r, http.StatusNotFound, "Card not found")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Card not found", resp.Error)
	assert.Equal(t, GetTraceID(r.Context()), resp.TraceID)
}

func TestRespondWithErrorAndLogRedactsDetails(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/decks/x/print", nil)
	r = r.WithContext(logger.WithContext(r.Context(), log))

	err := errors.New("dial postgres://admin:hunter2@db:5432/cards failed")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred", err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.NotContains(t, logs.String(), "hunter2")
}

func TestRespondWithErrorAndLogLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		opts   []ResponseOption
		want   string
	}{
		{"client error", http.StatusBadRequest, nil, `"level":"DEBUG"`},
		{"rate limited", http.StatusTooManyRequests, nil, `"level":"WARN"`},
		{"elevated", http.StatusForbidden, []ResponseOption{WithElevatedLogLevel()}, `"level":"WARN"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(logger.WithContext(r.Context(), log))

			RespondWithErrorAndLog(httptest.NewRecorder(), r, tt.status, "msg", errors.New("x"), tt.opts...)

			assert.Contains(t, logs.String(), tt.want)
		})
	}
}
