// Package middleware provides the cross-cutting HTTP concerns: request
// logging, rate limiting, metrics, and token authentication. The gateway
// composes them so that rate limiting runs before auth, and auth before any
// handler touches the store.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sisihe/sisiexpense/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userKey is the context key for the authenticated username.
const userKey contextKey = "user"

// GetUser extracts the authenticated username from the context.
// Returns empty string if the request was not authenticated.
func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// RequireAuth returns middleware that validates the bearer token and puts
// the authenticated username into the request context. The three failure
// modes keep distinct machine-readable codes so clients can tell a missing
// token from an expired or tampered one.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				tokenString = strings.TrimPrefix(header, "Bearer ")
			}

			user, err := tokens.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					writeError(w, http.StatusUnauthorized, "missing_token", "authorization token required")
				case errors.Is(err, auth.ErrTokenExpired):
					writeError(w, http.StatusUnauthorized, "token_expired", "token has expired")
				default:
					writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
