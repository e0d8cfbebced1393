package handler

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var userIDKey = contextKey{}

// SessionVerifier validates a bearer session token and returns the user ID
// it is bound to.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

// RequireAuth verifies the Authorization bearer token and attaches the
// resolved user ID to the request context.
func RequireAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respondErrorMessage(w, http.StatusUnauthorized, "not authorized to access this route")
				return
			}

			userID, err := verifier.VerifySession(parts[1])
			if err != nil {
				respondErrorMessage(w, http.StatusUnauthorized, "not authorized to access this route")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user ID attached by
// RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
