// Package httpapi assembles the HTTP surface: middleware chain first, then
// the versioned route tree.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pixelloom/studio/internal/http/handlers"
	"github.com/pixelloom/studio/internal/infra"
	"github.com/pixelloom/studio/internal/middleware"
)

// NewRouter wires every endpoint onto a chi router.
func NewRouter(cfg *infra.Config, app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Locale(cfg.DefaultLocale))

	r.Get("/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", app.ClientConfig)

		r.Route("/images", func(r chi.Router) {
			r.Post("/pad", app.ImagesPad)
			r.Post("/crop", app.ImagesCrop)
			r.Post("/print-sheet", app.ImagesPrintSheet)
			r.Post("/mask", app.ImagesMask)
		})

		r.Post("/generate", app.Generate)

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", app.BatchesCreate)
			r.Get("/{id}", app.BatchesGet)
			r.Delete("/{id}", app.BatchesDiscard)
			r.Get("/{id}/archive", app.BatchesArchive)
			r.Post("/{id}/jobs/{jobID}/retry", app.BatchesRetry)
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/{key}", app.LibraryGet)
			r.Put("/{key}", app.LibraryPut)
		})
	})

	return r
}
