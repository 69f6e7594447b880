package api

import (
	"context"
	"net/http"
	"strings"

	"cosmos-backend/internal/auth"
	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/logging"
)

type contextKey string

const userIDKey contextKey = "userID"

// AuthMiddleware validates the identity token carried by a request and
// attaches the resolved userId to its context. Token lookup order mirrors
// the collaborator-facing surface §6.1 describes: HttpOnly cookie first,
// then the Authorization header, then a query parameter for transports that
// cannot set headers.
func AuthMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errors.RespondWithError(w, errors.ErrAuthMissingToken, false)
				return
			}

			claims, err := tm.ValidateToken(token)
			if err != nil {
				logging.LogWarning(r.Context(), "token validation failed", map[string]interface{}{"error": err.Error()})
				errors.RespondWithError(w, errors.ErrAuthInvalidToken, false)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
