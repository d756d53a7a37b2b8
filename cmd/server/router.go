package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/cardstock/internal/api"
	apiMiddleware "github.com/phrazzld/cardstock/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	sessionHandler := api.NewSessionHandler(app.editingService, app.logger)
	printHandler := api.NewPrintHandler(app.printService, app.logger)
	importHandler := api.NewImportHandler(app.importService,
		int64(app.config.Render.MaxUploadMB)<<20, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.verifier)

	r.Route("/api", func(r chi.Router) {
		// Layout questions carry no user data
		r.Get("/print/layout", printHandler.GetLayout)
		r.Get("/print/presets", printHandler.ListPresets)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/cards/{id}/sessions", sessionHandler.OpenSession)

			r.Route("/sessions/{sid}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.CloseSession)
				r.Post("/side", sessionHandler.SetSide)
				r.Post("/select", sessionHandler.Select)
				r.Post("/elements", sessionHandler.AddElement)
				r.Patch("/elements/{eid}", sessionHandler.UpdateElement)
				r.Delete("/elements/{eid}", sessionHandler.DeleteElement)
				r.Post("/elements/{eid}/duplicate", sessionHandler.DuplicateElement)
				r.Post("/pointer", sessionHandler.Pointer)
				r.Post("/background", sessionHandler.SetBackground)
				r.Post("/title", sessionHandler.SetTitle)
				r.Post("/commit", sessionHandler.Commit)
				r.Post("/undo", sessionHandler.Undo)
				r.Post("/redo", sessionHandler.Redo)
				r.Post("/save", sessionHandler.Save)
			})

			r.Post("/decks/{id}/print", printHandler.PlanDeck)
			r.Post("/decks/{id}/print/export", printHandler.ExportDeck)
			r.Post("/decks/{id}/import", importHandler.ImportDeck)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
