package api

import (
	"net/http"
	"time"

	"cosmos-backend/internal/auth"
	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/logging"
)

// RateLimitMiddleware throttles the expensive simulation-mutating endpoints
// per caller identity: limit requests per window, keyed on userId plus the
// request path, so each endpoint of each universe has its own allowance and
// simulate calls don't use up a caller's allowance to resolve anomalies.
// limiter may be nil, in which case the middleware is a
// no-op passthrough (Redis unavailable at startup).
func RateLimitMiddleware(limiter *auth.RateLimiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := userIDFromContext(r.Context()) + ":" + r.URL.Path
			allowed, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				logging.LogWarning(r.Context(), "rate limiter unavailable, allowing request", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				errors.RespondWithError(w, errors.ErrRateLimited, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
