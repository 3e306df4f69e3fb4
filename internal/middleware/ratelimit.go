package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns middleware allowing at most one request per source
// address per interval. The gate is in-memory and best-effort: it resets on
// restart and is applied before authentication, so even failed logins count.
// A non-positive interval disables limiting.
func RateLimit(interval time.Duration) func(http.Handler) http.Handler {
	if interval <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(1, interval,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		}),
	)
}
