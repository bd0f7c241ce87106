/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the review front end

ROUTE GROUPS:
  /api/carriers/*       Roster status versions
  /api/rings            Clock-ring import and listing
  /api/excusals         Steward overrides
  /api/exclusions       Exclusion calendar
  /api/maximized/*      OTDL-maximized dates
  /api/evaluations      Evaluation runs
  /api/violations       Ledger queries
  /api/remedies         Remedy totals
  /api/runs             Run log
  /health               Liveness
  /metrics              Prometheus scrape endpoint (when configured)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/overtime/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the parts of the router that vary by deployment.
type RouterOptions struct {
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/carriers", func(r chi.Router) {
			r.Get("/", h.ListCarriers)
			r.Post("/", h.AddStatus)
			r.Get("/{id}", h.GetCarrier)
		})

		r.Route("/rings", func(r chi.Router) {
			r.Get("/", h.ListRings)
			r.Post("/", h.ImportRings)
		})

		r.Route("/excusals", func(r chi.Router) {
			r.Get("/", h.ListExcusals)
			r.Post("/", h.SetExcusal)
		})

		r.Route("/exclusions", func(r chi.Router) {
			r.Get("/", h.GetExclusions)
			r.Put("/", h.ReplaceExclusions)
		})

		r.Route("/maximized", func(r chi.Router) {
			r.Get("/", h.ListMaximized)
			r.Put("/{date}", h.SetMaximized)
		})

		r.Post("/evaluations", h.Evaluate)
		r.Get("/violations", h.ListViolations)
		r.Get("/remedies", h.GetRemedies)
		r.Get("/runs", h.ListRuns)
		r.Get("/articles", h.ListArticles)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	return r
}
