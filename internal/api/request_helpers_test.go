package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
)

func TestGetPathUUID(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name        string
		params      map[string]string
		expectedID  uuid.UUID
		expectedErr error
	}{
		{"valid", map[string]string{"id": id.String()}, id, nil},
		{"missing", nil, uuid.Nil, domain.ErrValidation},
		{"malformed", map[string]string{"id": "not-a-uuid"}, uuid.Nil, domain.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/", "", uuid.Nil, tt.params)

			got, err := getPathUUID(req, "id")

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, got)
		})
	}
}

func TestHandleUserIDAndPathUUID(t *testing.T) {
	userID, pathID := uuid.New(), uuid.New()

	tests := []struct {
		name           string
		userID         uuid.UUID
		params         map[string]string
		expectedOK     bool
		expectedStatus int
	}{
		{"both present", userID, map[string]string{"id": pathID.String()}, true, http.StatusOK},
		{"no user", uuid.Nil, map[string]string{"id": pathID.String()}, false, http.StatusUnauthorized},
		{"bad path id", userID, map[string]string{"id": "123"}, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/", "", tt.userID, tt.params)
			rec := httptest.NewRecorder()

			gotUser, gotPath, ok := handleUserIDAndPathUUID(rec, req, "id", testLogger())

			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if ok {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, pathID, gotPath)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		expectedOK      bool
		expectedStatus  int
		expectedMessage string
	}{
		{"valid", `{"type":"shape","shape":"circle"}`, true, http.StatusOK, ""},
		{"empty body", "", false, http.StatusBadRequest, "Request body is required"},
		{"malformed", `{"type":`, false, http.StatusBadRequest, "Invalid request format"},
		{"unknown field", `{"type":"text","colour":"red"}`, false, http.StatusBadRequest, "Invalid request format"},
		{"trailing data", `{"type":"text"} {}`, false, http.StatusBadRequest, "Invalid request format"},
		{"fails validation", `{"type":"text","shape":"hexagon"}`, false, http.StatusBadRequest, "Invalid Shape: invalid value"},
		{"too large", `{"type":"` + strings.Repeat("a", shared.MaxJSONBodyBytes) + `"}`, false,
			http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodPost, "/", tt.body, uuid.New(), nil)
			rec := httptest.NewRecorder()
			var dst AddElementRequest

			ok := decodeAndValidate(rec, req, &dst, testLogger())

			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decodeError(t, rec).Error)
			}
		})
	}
}
