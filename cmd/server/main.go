package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/sisihe/sisiexpense/internal/auth"
	"github.com/sisihe/sisiexpense/internal/config"
	"github.com/sisihe/sisiexpense/internal/server"
	"github.com/sisihe/sisiexpense/internal/service"
	"github.com/sisihe/sisiexpense/internal/storage/file"
	"github.com/sisihe/sisiexpense/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := file.New(cfg.StatePath, cfg.AllowedUsers, auth.PlaceholderCredential)
	if err != nil {
		slog.Error("Failed to initialize ledger state", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Ledger state initialized", "path", cfg.StatePath, "users", len(cfg.AllowedUsers))

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL, cfg.AllowedUsers)
	if err != nil {
		slog.Error("Failed to initialize token manager", "error", err)
		os.Exit(1)
	}

	ledger := service.NewLedger(store, tokens, cfg.AllowedUsers, slog.Default())
	srv := server.New(ledger, tokens, cfg.RateLimit)

	slog.Info("Server starting", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Router()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
