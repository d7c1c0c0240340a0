package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jobscout/jobscout/internal/core"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Ingest    IngestAPI
	Lifecycle LifecycleAPI
	Search    SearchAPI
	Prefs     core.PreferenceRepository

	// CompressionLevel enables gzip when positive.
	CompressionLevel int
	Logger           *slog.Logger // Logger for request logging (optional)
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	if services.Logger != nil {
		r.Use(Logging(services.Logger))
		r.Use(Recover(services.Logger))
	} else {
		r.Use(middleware.Recoverer)
	}
	if services.CompressionLevel > 0 {
		r.Use(middleware.Compress(services.CompressionLevel, "application/json"))
	}

	scrapeHandlers := &ScrapeHandlers{Svc: services.Ingest}
	jobHandlers := &JobHandlers{Svc: services.Lifecycle}
	searchHandlers := &SearchHandlers{Svc: services.Search}
	prefHandlers := &PreferenceHandlers{Repo: services.Prefs}

	r.Get("/healthz", healthHandler)
	r.Head("/healthz", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", scrapeHandlers.Scrape)
		r.Get("/search", searchHandlers.Search)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandlers.ListJobs)
			r.Get("/expiration-summary", jobHandlers.ExpirationSummary)
			r.Get("/{id}", jobHandlers.GetJob)
			r.Post("/{id}/save", jobHandlers.SaveJob)
			r.Post("/{id}/unsave", jobHandlers.UnsaveJob)
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", prefHandlers.GetPreferences)
			r.Put("/", prefHandlers.PutPreferences)
		})
	})

	return r
}
