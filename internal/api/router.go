package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cosmos-backend/internal/auth"
	"cosmos-backend/internal/health"
	"cosmos-backend/internal/logging"
	"cosmos-backend/internal/metrics"
)

// NewRouter assembles the chi router serving the collaborator-facing HTTP
// surface §6.1 describes. limiter may be nil when Redis is unavailable at
// startup, in which case rate limiting is skipped rather than failing
// requests. allowedOrigins must not contain a wildcard; callers validate
// that with config.ValidateCORSOrigins before reaching here.
func NewRouter(h *Handler, tm *auth.TokenManager, checker *health.Checker, limiter *auth.RateLimiter, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(logging.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/health", checker.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tm))

			r.Get("/universe", h.ListUniverses)
			r.Post("/universe", h.CreateUniverse)
			r.Get("/universe/{id}", h.GetUniverse)
			r.Delete("/universe/{id}", h.DeleteUniverse)
			r.Get("/universe/{id}/stats", h.Stats)
			r.Get("/universe/{id}/anomalies", h.Anomalies)
			r.Get("/universe/{id}/predictions", h.Predictions)
			r.Get("/universe/{id}/end-conditions", h.EndConditions)

			r.Group(func(r chi.Router) {
				r.Use(RateLimitMiddleware(limiter, 30, time.Minute))
				r.Post("/universe/{id}/simulate", h.SimulateUniverse)
				r.Post("/universe/{id}/resolve-anomaly", h.ResolveAnomaly)
				r.Post("/universe/{id}/cleanup-anomalies", h.CleanupAnomalies)
			})
		})
	})

	return r
}
