package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/platform/logger"
	"github.com/phrazzld/cardstock/internal/platform/rediscache"
	"github.com/phrazzld/cardstock/internal/render"
	"github.com/phrazzld/cardstock/internal/store"
	"github.com/phrazzld/cardstock/internal/task"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatPDF ExportFormat = "pdf"
	FormatPNG ExportFormat = "png"
)

// Content types of the export formats.
const (
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"
)

// ParseExportFormat converts s into an ExportFormat. Empty means PDF.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(s)) {
	case FormatPDF, "":
		return FormatPDF, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ExportRequest describes one export. Page and Scale only apply to PNG;
// a zero Scale selects the configured preview scale.
type ExportRequest struct {
	Settings layout.PrintSettings
	Format   ExportFormat
	Page     int
	Scale    float64
}

// Export is a rendered print artefact.
type Export struct {
	Data        []byte
	ContentType string
	Pages       int
	Cached      bool
}

// PDFRenderer writes a print job as a PDF document.
type PDFRenderer interface {
	Render(ctx context.Context, job layout.PrintJob, w io.Writer) error
}

// PageRenderer renders a single page of a print job to PNG.
type PageRenderer interface {
	RenderPageBytes(ctx context.Context, job layout.PrintJob, index int, scale float64) ([]byte, error)
}

// PDFVerifier checks an exported PDF against its job.
type PDFVerifier func(data []byte, job layout.PrintJob) error

// TaskRunner runs a batch of tasks and waits for them.
type TaskRunner interface {
	RunAll(ctx context.Context, tasks []task.Task) error
}

// ExportCache stores rendered exports. Implementations report a miss as
// found=false with a nil error.
type ExportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	InvalidateDeck(ctx context.Context, deckID uuid.UUID) error
}

// PrintService lays out decks for printing and renders exports.
type PrintService interface {
	// Layout resolves settings into a sheet capacity. Settings on which no
	// card fits fail with an error wrapping layout.ErrCardDoesNotFit.
	Layout(settings layout.PrintSettings) (layout.Capacity, error)

	// Presets lists the named print settings.
	Presets() layout.Presets

	// Plan paginates the deck's cards.
	Plan(ctx context.Context, userID, deckID uuid.UUID, settings layout.PrintSettings) (layout.PrintJob, error)

	// Export renders the deck as a PDF or a single PNG page.
	Export(ctx context.Context, userID, deckID uuid.UUID, req ExportRequest) (Export, error)

	// Previews renders every page of the deck to PNG on the worker pool.
	Previews(ctx context.Context, userID, deckID uuid.UUID, settings layout.PrintSettings, scale float64) ([][]byte, error)

	// InvalidateDeck drops the cached exports of a deck.
	InvalidateDeck(ctx context.Context, deckID uuid.UUID) error
}

// PrintDependencies are the collaborators of the print service. Verify and
// Cache are optional.
type PrintDependencies struct {
	Cards  store.CardStore
	PDF    PDFRenderer
	Pages  PageRenderer
	Runner TaskRunner
	Verify PDFVerifier
	Cache  ExportCache
}

// PrintConfig tunes the print service.
type PrintConfig struct {
	PreviewScale float64
	Presets      layout.Presets
}

type printServiceImpl struct {
	deps   PrintDependencies
	config PrintConfig
	logger *slog.Logger
}

// NewPrintService creates a PrintService.
func NewPrintService(deps PrintDependencies, config PrintConfig, logger *slog.Logger) (PrintService, error) {
	switch {
	case deps.Cards == nil:
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	case deps.PDF == nil:
		return nil, domain.NewValidationError("pdf", "cannot be nil", domain.ErrValidation)
	case deps.Pages == nil:
		return nil, domain.NewValidationError("pages", "cannot be nil", domain.ErrValidation)
	case deps.Runner == nil:
		return nil, domain.NewValidationError("runner", "cannot be nil", domain.ErrValidation)
	}
	if deps.Cache == nil {
		deps.Cache = nopCache{}
	}
	if config.PreviewScale <= 0 {
		config.PreviewScale = render.PreviewScale
	}
	if config.Presets == nil {
		config.Presets = layout.DefaultPresets()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &printServiceImpl{
		deps:   deps,
		config: config,
		logger: logger.With(slog.String("component", "print_service")),
	}, nil
}

// Layout implements PrintService.
func (s *printServiceImpl) Layout(settings layout.PrintSettings) (layout.Capacity, error) {
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

// Presets implements PrintService.
func (s *printServiceImpl) Presets() layout.Presets {
	return s.config.Presets
}

// Plan implements PrintService.
func (s *printServiceImpl) Plan(ctx context.Context, userID, deckID uuid.UUID, settings layout.PrintSettings) (layout.PrintJob, error) {
	cards, err := s.loadDeck(ctx, userID, deckID)
	if err != nil {
		return layout.PrintJob{}, err
	}
	job, err := layout.GeneratePrintPages(cards, settings.WithDefaults())
	if err != nil {
		return layout.PrintJob{}, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("print job planned",
		slog.String("deck_id", deckID.String()),
		slog.Int("cards", len(cards)),
		slog.Int("pages", len(job.Pages)))
	return job, nil
}

// Export implements PrintService.
func (s *printServiceImpl) Export(ctx context.Context, userID, deckID uuid.UUID, req ExportRequest) (Export, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if req.Format == "" {
		req.Format = FormatPDF
	}
	if req.Format != FormatPDF && req.Format != FormatPNG {
		return Export{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	job, err := s.Plan(ctx, userID, deckID, req.Settings)
	if err != nil {
		return Export{}, err
	}

	scale := req.Scale
	if scale == 0 {
		scale = s.config.PreviewScale
	}
	if req.Format == FormatPNG {
		if err := render.ValidateScale(scale); err != nil {
			return Export{}, err
		}
	}
	var key string
	if req.Format == FormatPDF {
		key = exportKey(deckID, job, FormatPDF, 0, render.ExportScale)
	} else {
		key = exportKey(deckID, job, FormatPNG, req.Page, scale)
	}

	if data, ok := s.cached(ctx, key); ok {
		return Export{Data: data, ContentType: contentType(req.Format), Pages: len(job.Pages), Cached: true}, nil
	}

	var data []byte
	switch req.Format {
	case FormatPDF:
		data, err = s.renderPDF(ctx, job)
	case FormatPNG:
		data, err = s.deps.Pages.RenderPageBytes(ctx, job, req.Page, scale)
	}
	if err != nil {
		log.Error("export failed",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.String("format", string(req.Format)))
		return Export{}, err
	}

	s.store(ctx, key, data)
	log.Info("deck exported",
		slog.String("deck_id", deckID.String()),
		slog.String("format", string(req.Format)),
		slog.Int("bytes", len(data)))
	return Export{Data: data, ContentType: contentType(req.Format), Pages: len(job.Pages)}, nil
}

func (s *printServiceImpl) renderPDF(ctx context.Context, job layout.PrintJob) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.deps.PDF.Render(ctx, job, &buf); err != nil {
		return nil, err
	}
	if s.deps.Verify != nil {
		if err := s.deps.Verify(buf.Bytes(), job); err != nil {
			return nil, NewServiceError("print", "export", "exported PDF failed verification", err)
		}
	}
	return buf.Bytes(), nil
}

// Previews implements PrintService.
func (s *printServiceImpl) Previews(
	ctx context.Context,
	userID, deckID uuid.UUID,
	settings layout.PrintSettings,
	scale float64,
) ([][]byte, error) {
	job, err := s.Plan(ctx, userID, deckID, settings)
	if err != nil {
		return nil, err
	}
	if scale == 0 {
		scale = s.config.PreviewScale
	}
	if err := render.ValidateScale(scale); err != nil {
		return nil, err
	}

	out := make([][]byte, len(job.Pages))
	keys := make([]string, len(job.Pages))
	var tasks []task.Task
	for i := range job.Pages {
		keys[i] = exportKey(deckID, job, FormatPNG, i, scale)
		if data, ok := s.cached(ctx, keys[i]); ok {
			out[i] = data
			continue
		}
		tasks = append(tasks, task.NewFuncTask(task.TaskTypeRenderPage, func(ctx context.Context) error {
			data, err := s.deps.Pages.RenderPageBytes(ctx, job, i, scale)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			out[i] = data
			return nil
		}))
	}

	if err := s.deps.Runner.RunAll(ctx, tasks); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("preview rendering failed",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	for i, data := range out {
		s.store(ctx, keys[i], data)
	}
	return out, nil
}

// InvalidateDeck implements PrintService.
func (s *printServiceImpl) InvalidateDeck(ctx context.Context, deckID uuid.UUID) error {
	return s.deps.Cache.InvalidateDeck(ctx, deckID)
}

// loadDeck returns the deck's cards in print order after checking that every
// card belongs to userID.
func (s *printServiceImpl) loadDeck(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Card, error) {
	cards, err := s.deps.Cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, NewServiceError("print", "load deck", "failed to list deck cards", err)
	}
	for i := range cards {
		if !cards[i].IsOwnedBy(userID) {
			logger.FromContextOrDefault(ctx, s.logger).Warn("attempt to print deck owned by another user",
				slog.String("deck_id", deckID.String()),
				slog.String("user_id", userID.String()))
			return nil, ErrNotOwned
		}
	}
	return cards, nil
}

func (s *printServiceImpl) cached(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	data, ok, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("export cache read failed",
			slog.String("error", err.Error()))
		return nil, false
	}
	return data, ok
}

func (s *printServiceImpl) store(ctx context.Context, key string, data []byte) {
	if key == "" {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, data); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("export cache write failed",
			slog.String("error", err.Error()))
	}
}

// exportKey fingerprints everything an export depends on: the paginated cards
// with their content, the settings, and the render parameters. It returns ""
// when the fingerprint cannot be encoded.
func exportKey(deckID uuid.UUID, job layout.PrintJob, format ExportFormat, page int, scale float64) string {
	fingerprint, err := json.Marshal(struct {
		Format ExportFormat    `json:"format"`
		Page   int             `json:"page"`
		Scale  float64         `json:"scale"`
		Job    layout.PrintJob `json:"job"`
	}{format, page, scale, job})
	if err != nil {
		// A non-finite float anywhere in the job cannot be encoded; such
		// exports are rendered without caching.
		return ""
	}
	return rediscache.Key(deckID, fingerprint)
}

func contentType(f ExportFormat) string {
	if f == FormatPNG {
		return ContentTypePNG
	}
	return ContentTypePDF
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopCache) Set(context.Context, string, []byte) error         { return nil }
func (nopCache) InvalidateDeck(context.Context, uuid.UUID) error   { return nil }
