package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	apiMiddleware "github.com/phrazzld/cardstock/internal/api/middleware"
	"github.com/phrazzld/cardstock/internal/config"
	"github.com/phrazzld/cardstock/internal/events"
	"github.com/phrazzld/cardstock/internal/extraction"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/platform/docreader"
	"github.com/phrazzld/cardstock/internal/platform/gemini"
	"github.com/phrazzld/cardstock/internal/platform/postgres"
	"github.com/phrazzld/cardstock/internal/platform/rediscache"
	"github.com/phrazzld/cardstock/internal/render"
	"github.com/phrazzld/cardstock/internal/service"
	"github.com/phrazzld/cardstock/internal/store"
	"github.com/phrazzld/cardstock/internal/task"
)

// sweepInterval is how often idle editing sessions are closed.
const sweepInterval = time.Minute

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore store.CardStore
	verifier  apiMiddleware.TokenVerifier

	editingService service.EditingService
	printService   service.PrintService
	importService  service.ImportService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	closers      []func() error
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	verifier, err := apiMiddleware.NewHMACVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	app.verifier = verifier

	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.taskRunner = setupTaskRunner(cfg, logger)

	cache, err := app.setupExportCache(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	presets, err := loadPresets(cfg.Render.PresetsPath)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	images := render.NewHTTPImageSource(&http.Client{
		Timeout: time.Duration(cfg.Render.ImageTimeoutSecs) * time.Second,
	})
	previews := render.NewPreviewRenderer(images, logger)
	app.closers = append(app.closers, previews.Close)
	app.printService, err = service.NewPrintService(service.PrintDependencies{
		Cards:  app.cardStore,
		PDF:    render.NewPDFRenderer(images, logger),
		Pages:  previews,
		Runner: app.taskRunner,
		Verify: render.VerifyPDF,
		Cache:  cache,
	}, service.PrintConfig{
		PreviewScale: cfg.Render.PreviewScale,
		Presets:      presets,
	}, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create print service: %w", err)
	}

	app.editingService, err = service.NewEditingService(app.cardStore, app.eventEmitter, service.EditingConfig{
		HistoryLimit: cfg.Editor.HistoryLimit,
		IdleTimeout:  time.Duration(cfg.Editor.SessionIdleMinutes) * time.Minute,
	}, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create editing service: %w", err)
	}

	extractor, err := setupExtractor(ctx, cfg, logger)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.importService, err = service.NewImportService(db, app.cardStore, extractor, app.eventEmitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	// Saved and imported cards change what a deck prints.
	invalidation := task.NewEventTaskHandler(
		service.ExportInvalidationTasks(app.printService), app.taskRunner, logger)
	app.eventEmitter.RegisterHandler(events.TypeCardSaved, invalidation)
	app.eventEmitter.RegisterHandler(events.TypeCardsImported, invalidation)

	logger.Info("Application initialized successfully",
		slog.Bool("import_enabled", app.importService.Enabled()),
		slog.Bool("export_cache_enabled", cfg.Redis.Enabled()))
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	go app.sweepSessions(ctx)

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupTaskRunner creates and starts the worker pool used for page rendering
// and background cache invalidation.
func setupTaskRunner(cfg *config.Config, logger *slog.Logger) *task.TaskRunner {
	runner := task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Render.Workers,
		QueueSize:   cfg.Render.QueueSize,
	}, logger)
	runner.SetErrorHandler(func(t task.Task, err error) {
		logger.Warn("background task failed",
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
	})
	runner.Start()
	return runner
}

// setupExportCache connects to Redis when it is configured. Without Redis the
// print service renders every export.
func (app *application) setupExportCache(ctx context.Context) (service.ExportCache, error) {
	if !app.config.Redis.Enabled() {
		app.logger.Info("export cache disabled, no redis address configured")
		return nil, nil
	}
	cache, err := rediscache.New(ctx, app.config.Redis, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize export cache: %w", err)
	}
	app.closers = append(app.closers, cache.Close)
	return cache, nil
}

// setupExtractor creates the Gemini extractor when an API key is configured.
func setupExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (extraction.Extractor, error) {
	if !cfg.LLM.Enabled() {
		logger.Info("card import disabled, no Gemini API key configured")
		return nil, nil
	}
	extractor, err := gemini.NewExtractor(ctx, logger, cfg.LLM, docreader.New(docreader.DefaultMaxPages))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize card extractor: %w", err)
	}
	logger.Info("card extractor initialized", slog.String("model", cfg.LLM.ModelName))
	return extractor, nil
}

// loadPresets reads print presets from path, or returns the built-in presets
// when path is empty.
func loadPresets(path string) (layout.Presets, error) {
	if path == "" {
		return layout.DefaultPresets(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presets file: %w", err)
	}
	defer func() { _ = f.Close() }()

	presets, err := layout.LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets from %s: %w", path, err)
	}
	return presets, nil
}

// sweepSessions closes idle editing sessions until ctx is done.
func (app *application) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := app.editingService.SweepIdle(ctx, now); n > 0 {
				app.logger.Info("closed idle editing sessions", slog.Int("count", n))
			}
		}
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	for _, closeFn := range app.closers {
		if err := closeFn(); err != nil {
			app.logger.Error("Error closing resource", slog.String("error", err.Error()))
		}
	}
	app.closers = nil

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}
