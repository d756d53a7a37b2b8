package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/service"
)

// ImportFileField is the multipart form field carrying the upload.
const ImportFileField = "file"

// ImportHandler turns uploaded documents into cards.
type ImportHandler struct {
	imports        service.ImportService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates a new ImportHandler accepting uploads up to
// maxUploadBytes.
func NewImportHandler(imports service.ImportService, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	if imports == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("import service cannot be nil for ImportHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ImportHandler")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &ImportHandler{
		imports:        imports,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "import_handler")),
	}
}

// ImportDeck handles POST /decks/{id}/import with a multipart upload in the
// "file" field.
func (h *ImportHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if !h.imports.Enabled() {
		HandleAPIError(w, r, service.ErrImportUnavailable, "")
		return
	}

	upload, err := h.readUpload(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.imports.Import(r.Context(), userID, deckID, upload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import cards")
		return
	}

	log.Info("cards imported",
		slog.String("deck_id", deckID.String()),
		slog.String("mime_type", upload.MIMEType),
		slog.Int("count", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusCreated, ImportResponse{Cards: cards})
}

func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (extraction.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return extraction.Upload{}, err
		}
		return extraction.Upload{}, domain.NewValidationError(ImportFileField, "must be a multipart upload", domain.ErrValidation)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(ImportFileField)
	if err != nil {
		return extraction.Upload{}, domain.NewValidationError(ImportFileField, "is required", domain.ErrValidation)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return extraction.Upload{}, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return extraction.Upload{}, &http.MaxBytesError{Limit: h.maxUploadBytes}
	}
	if len(data) == 0 {
		return extraction.Upload{}, extraction.ErrEmptyUpload
	}

	return extraction.Upload{
		Filename: header.Filename,
		MIMEType: uploadMIMEType(header.Header.Get("Content-Type"), data),
		Data:     data,
	}, nil
}

// uploadMIMEType prefers the part's declared type and sniffs the content when
// the client sent none or a generic one.
func uploadMIMEType(declared string, data []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}
