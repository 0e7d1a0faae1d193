package authapi

import (
	"context"
	"net/http"
	"time"
)

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated user id attached by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RequireAuth verifies the Bearer access token and attaches the subject id to
// the request context. Access tokens are self-contained; no store round-trip
// happens here.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}

		claims, err := h.sessions.ValidateAccessToken(tok, time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
