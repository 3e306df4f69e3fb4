// Package server wires the ledger service to its HTTP surface: route
// registration, request decoding, and the mapping from service errors to
// status codes and machine-readable error codes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sisihe/sisiexpense/internal/auth"
	"github.com/sisihe/sisiexpense/internal/middleware"
	"github.com/sisihe/sisiexpense/internal/service"
)

// Server handles HTTP requests for the expense ledger.
type Server struct {
	ledger       *service.Ledger
	tokens       *auth.TokenManager
	rateInterval time.Duration
}

// New creates a server around the given ledger service. rateInterval is
// the per-address request spacing; zero disables rate limiting.
func New(ledger *service.Ledger, tokens *auth.TokenManager, rateInterval time.Duration) *Server {
	return &Server{
		ledger:       ledger,
		tokens:       tokens,
		rateInterval: rateInterval,
	}
}

// Router builds the route tree. Cross-cutting order on /api is fixed:
// rate limit first, then auth, then the handler (which is what touches the
// store). Metrics and health stay outside the rate-limited group so
// scrapers are never throttled.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Metrics)
		api.Use(middleware.RateLimit(s.rateInterval))

		api.Post("/login", s.handleLogin)

		api.Group(func(g chi.Router) {
			g.Use(middleware.RequireAuth(s.tokens))

			g.Get("/expenses/{id}", s.handleGetExpense)
			g.Post("/expenses", s.handleAddExpense)
			g.Delete("/expenses/{id}", s.handleDeleteExpense)
			g.Get("/balances", s.handleBalances)
			g.Post("/balances/clear", s.handleClearBalances)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
