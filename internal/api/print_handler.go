package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/api/shared"
	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/redact"
	"github.com/phrazzld/cardstock/internal/render"
	"github.com/phrazzld/cardstock/internal/service"
)

// Response headers describing an export.
const (
	HeaderCache     = "X-Cache"
	HeaderPageCount = "X-Page-Count"
)

// PrintHandler handles layout, pagination and export requests.
type PrintHandler struct {
	prints service.PrintService
	logger *slog.Logger
}

// NewPrintHandler creates a new PrintHandler.
func NewPrintHandler(prints service.PrintService, logger *slog.Logger) *PrintHandler {
	if prints == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("print service cannot be nil for PrintHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PrintHandler")
	}
	return &PrintHandler{
		prints: prints,
		logger: logger.With(slog.String("component", "print_handler")),
	}
}

// GetLayout handles GET /print/layout. Settings come from the query string;
// anything omitted takes its default.
func (h *PrintHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	req, err := printRequestFromQuery(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	settings, err := h.resolveSettings(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	capacity, err := h.prints.Layout(settings)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LayoutResponse{Settings: settings.WithDefaults(), Capacity: capacity})
}

// ListPresets handles GET /print/presets.
func (h *PrintHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.prints.Presets())
}

// PlanDeck handles POST /decks/{id}/print and returns the paginated job.
func (h *PrintHandler) PlanDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	settings, ok := h.decodeSettings(w, r, log)
	if !ok {
		return
	}

	job, err := h.prints.Plan(r.Context(), userID, deckID, settings)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to plan print job")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlanResponse{DeckID: deckID, PageCount: len(job.Pages), Job: job})
}

// ExportDeck handles POST /decks/{id}/print/export. The format query
// parameter selects pdf (default) or png. A png export with a 1-based page
// parameter returns that page's image; without one it returns every page as
// a data URI.
func (h *PrintHandler) ExportDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	query := r.URL.Query()
	format, err := service.ParseExportFormat(query.Get("format"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	page, err := optionalInt(query, "page")
	if err != nil || page < 0 {
		HandleAPIError(w, r, domain.NewValidationError("page", "must be a positive integer", domain.ErrValidation), "")
		return
	}
	scale, err := optionalFloat(query, "scale")
	if err != nil || math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 || scale > render.MaxPreviewScale {
		HandleAPIError(w, r, domain.NewValidationError("scale",
			fmt.Sprintf("must be between 0 and %g", render.MaxPreviewScale), domain.ErrValidation), "")
		return
	}

	settings, ok := h.decodeSettings(w, r, log)
	if !ok {
		return
	}

	if format == service.FormatPNG && page == 0 {
		h.previews(w, r, userID, deckID, settings, scale)
		return
	}

	req := service.ExportRequest{Settings: settings, Format: format, Scale: scale}
	if page > 0 {
		req.Page = page - 1
	}
	export, err := h.prints.Export(r.Context(), userID, deckID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export deck")
		return
	}

	w.Header().Set(HeaderPageCount, strconv.Itoa(export.Pages))
	w.Header().Set(HeaderCache, cacheStatus(export.Cached))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(deckID.String(), format, page)))
	shared.RespondWithBytes(w, r, http.StatusOK, export.ContentType, export.Data)
}

func (h *PrintHandler) previews(
	w http.ResponseWriter,
	r *http.Request,
	userID, deckID uuid.UUID,
	settings layout.PrintSettings,
	scale float64,
) {
	pages, err := h.prints.Previews(r.Context(), userID, deckID, settings, scale)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to render previews")
		return
	}

	resp := PreviewResponse{Pages: make([]string, len(pages))}
	for i, data := range pages {
		resp.Pages[i] = "data:" + service.ContentTypePNG + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	w.Header().Set(HeaderPageCount, strconv.Itoa(len(pages)))
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("previews rendered",
		slog.String("deck_id", deckID.String()),
		slog.Int("pages", len(pages)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// decodeSettings reads an optional PrintRequest body. An empty body selects
// the defaults; the preset query parameter names a preset when the body does not.
func (h *PrintHandler) decodeSettings(w http.ResponseWriter, r *http.Request, log *slog.Logger) (layout.PrintSettings, bool) {
	var req PrintRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			HandleAPIError(w, r, err, "")
			return layout.PrintSettings{}, false
		}
		log.Warn("invalid print settings", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return layout.PrintSettings{}, false
	}
	if req.Preset == "" {
		req.Preset = r.URL.Query().Get("preset")
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return layout.PrintSettings{}, false
	}

	settings, err := h.resolveSettings(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return layout.PrintSettings{}, false
	}
	return settings, true
}

// resolveSettings starts from the named preset, if any, and applies the
// request's explicit fields on top.
func (h *PrintHandler) resolveSettings(req PrintRequest) (layout.PrintSettings, error) {
	var settings layout.PrintSettings
	if req.Preset != "" {
		preset, err := h.prints.Presets().Find(req.Preset)
		if err != nil {
			return layout.PrintSettings{}, err
		}
		settings = preset.Settings
	}

	if req.CardSize != "" {
		settings.CardSize = layout.CardSize(req.CardSize)
	}
	if req.CustomWidth > 0 {
		settings.CustomWidth = req.CustomWidth
	}
	if req.CustomHeight > 0 {
		settings.CustomHeight = req.CustomHeight
	}
	if req.PaperSize != "" {
		settings.PaperSize = layout.PaperSize(req.PaperSize)
	}
	if req.Orientation != "" {
		settings.Orientation = layout.Orientation(req.Orientation)
	}
	if req.Margin != "" {
		settings.Margin = layout.Margin(req.Margin)
	}
	if req.IncludeBack != nil {
		settings.IncludeBack = *req.IncludeBack
	}
	return settings, nil
}

func printRequestFromQuery(q url.Values) (PrintRequest, error) {
	req := PrintRequest{
		Preset:      q.Get("preset"),
		CardSize:    q.Get("cardSize"),
		PaperSize:   q.Get("paperSize"),
		Orientation: q.Get("orientation"),
		Margin:      q.Get("margin"),
	}

	var err error
	if req.CustomWidth, err = optionalFloat(q, "customWidth"); err != nil {
		return PrintRequest{}, domain.NewValidationError("customWidth", "must be a number", domain.ErrValidation)
	}
	if req.CustomHeight, err = optionalFloat(q, "customHeight"); err != nil {
		return PrintRequest{}, domain.NewValidationError("customHeight", "must be a number", domain.ErrValidation)
	}
	if raw := q.Get("includeBack"); raw != "" {
		includeBack, err := strconv.ParseBool(raw)
		if err != nil {
			return PrintRequest{}, domain.NewValidationError("includeBack", "must be a boolean", domain.ErrValidation)
		}
		req.IncludeBack = &includeBack
	}
	return req, nil
}

func optionalInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func optionalFloat(q url.Values, name string) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func cacheStatus(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}

func exportFilename(deckID string, format service.ExportFormat, page int) string {
	if format == service.FormatPNG {
		return fmt.Sprintf("deck-%s-page-%d.png", deckID, page)
	}
	return fmt.Sprintf("deck-%s.pdf", deckID)
}
