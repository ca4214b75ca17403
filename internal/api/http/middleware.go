package http

import (
	"context"
	"net/http"
	"strings"

	"studyhub-backend/internal/security"
)

type contextKey string

const userIDKey contextKey = "user-id"

// AuthMiddleware validates the bearer token and injects the user id into the
// request context. Handlers trust that id; no further credential checks
// happen past this point.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "authorization header is required"})
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: err.Error()})
				return
			}
			if claims.Type != security.TokenTypeAccess {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "access token required"})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int32, bool) {
	id, ok := ctx.Value(userIDKey).(int32)
	return id, ok
}

func requireUserID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "user id missing from context"})
	}
	return id, ok
}
