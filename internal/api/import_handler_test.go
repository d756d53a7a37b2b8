package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/platform/logger"
)

// newUploadRequest builds a multipart request with data in field. An empty
// contentType leaves the part untyped.
func newUploadRequest(t *testing.T, userID, deckID uuid.UUID, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", deckID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = logger.WithContext(ctx, testLogger())
	ctx = shared.WithUserID(ctx, userID)
	return req.WithContext(ctx)
}

func TestImportDeck(t *testing.T) {
	imports := &fakeImports{enabled: true}
	h := NewImportHandler(imports, 1<<20, testLogger())
	userID, deckID := uuid.New(), uuid.New()

	rec := httptest.NewRecorder()
	h.ImportDeck(rec, newUploadRequest(t, userID, deckID, ImportFileField, "notes.pdf",
		"application/pdf; name=notes.pdf", []byte("%PDF-1.4 notes")))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeJSON[ImportResponse](t, rec)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, deckID, resp.Cards[0].DeckID)
	assert.Equal(t, extraction.MIMEPDF, imports.upload.MIMEType)
	assert.Equal(t, "notes.pdf", imports.upload.Filename)
	assert.Equal(t, []byte("%PDF-1.4 notes"), imports.upload.Data)
}

func TestImportDeckSniffsUntypedUpload(t *testing.T) {
	imports := &fakeImports{enabled: true}
	h := NewImportHandler(imports, 1<<20, testLogger())
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	rec := httptest.NewRecorder()
	h.ImportDeck(rec, newUploadRequest(t, uuid.New(), uuid.New(), ImportFileField, "scan", "application/octet-stream", png))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, extraction.MIMEPNG, imports.upload.MIMEType)
}

func TestImportDeckErrors(t *testing.T) {
	tests := []struct {
		name           string
		imports        *fakeImports
		field          string
		data           []byte
		expectedStatus int
	}{
		{"disabled", &fakeImports{}, ImportFileField, []byte("x"), http.StatusServiceUnavailable},
		{"wrong field", &fakeImports{enabled: true}, "upload", []byte("x"), http.StatusBadRequest},
		{"empty file", &fakeImports{enabled: true}, ImportFileField, nil, http.StatusBadRequest},
		{"too large", &fakeImports{enabled: true}, ImportFileField, bytes.Repeat([]byte("a"), 2048), http.StatusRequestEntityTooLarge},
		{"unsupported type", &fakeImports{enabled: true, err: extraction.ErrUnsupportedUpload}, ImportFileField,
			[]byte("plain text"), http.StatusUnsupportedMediaType},
		{"model failure", &fakeImports{enabled: true, err: extraction.ErrTransientFailure}, ImportFileField,
			[]byte("%PDF"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewImportHandler(tt.imports, 1024, testLogger())
			rec := httptest.NewRecorder()

			h.ImportDeck(rec, newUploadRequest(t, uuid.New(), uuid.New(), tt.field, "f.pdf", "", tt.data))

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestUploadMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", uploadMIMEType("image/jpeg", nil))
	assert.Equal(t, "application/pdf", uploadMIMEType("", []byte("%PDF-1.7")))
	assert.Equal(t, "text/plain", uploadMIMEType("application/octet-stream", []byte("hello")))
}
