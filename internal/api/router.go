package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handler into a chi router.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimit(cfg))

		r.Get("/recommend", h.Recommend)
		r.Get("/details", h.Details)
		r.Get("/filters", h.Filters)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/direct", h.Direct)
				r.Post("/roulette", h.Roulette)
				r.Post("/spin", h.Spin)
				r.Post("/spin/stop", h.StopSpin)
				r.Post("/retry", h.Retry)
				r.Post("/dismiss", h.Dismiss)
				r.Get("/details", h.SessionDetails)
			})
		})
	})

	return r
}
