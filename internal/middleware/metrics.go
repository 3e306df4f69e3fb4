package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sisiexpense",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method, and status code.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sisiexpense",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling time by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Metrics records a request counter and latency histogram per chi route
// pattern, so /api/expenses/7 and /api/expenses/9 share one series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
