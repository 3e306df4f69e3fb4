// Package config loads process configuration from flags with environment
// fallbacks.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds everything the process needs to start.
type Config struct {
	// Addr is the listen address.
	Addr string

	// StatePath is the ledger state file.
	StatePath string

	// TokenSecret signs and verifies session tokens. Required: there is
	// no compiled-in default, and startup fails fast without it.
	TokenSecret string

	// AllowedUsers is the closed set of usernames, lower-case.
	AllowedUsers []string

	// RateLimit is the minimum spacing between requests from one source
	// address. Zero disables rate limiting.
	RateLimit time.Duration

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration
}

// Load parses flags (typically os.Args[1:]), falling back to environment
// variables: ADDR, STATE_PATH, TOKEN_SECRET, ALLOWED_USERS, RATE_LIMIT,
// TOKEN_TTL.
func Load(args []string) (*Config, error) {
	flagSet := pflag.NewFlagSet("sisiexpense", pflag.ContinueOnError)

	addr := flagSet.String("addr", envOr("ADDR", ":5000"), "HTTP listen address")
	statePath := flagSet.String("state", envOr("STATE_PATH", "data/ledger.json"), "path to the ledger state file")
	tokenSecret := flagSet.String("token-secret", os.Getenv("TOKEN_SECRET"), "HMAC key for session tokens (required)")
	users := flagSet.String("users", envOr("ALLOWED_USERS", "bowei,winston,alan,zach"), "comma-separated username allow-list")

	rateLimit, err := envDuration("RATE_LIMIT", time.Second)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := envDuration("TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	flagSet.DurationVar(&rateLimit, "rate-limit", rateLimit, "minimum spacing between requests per source address (0 disables)")
	flagSet.DurationVar(&tokenTTL, "token-ttl", tokenTTL, "session token lifetime")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if *tokenSecret == "" {
		return nil, errors.New("token secret is required: set --token-secret or TOKEN_SECRET")
	}

	allowed := splitUsers(*users)
	if len(allowed) == 0 {
		return nil, errors.New("user allow-list must not be empty")
	}

	return &Config{
		Addr:         *addr,
		StatePath:    *statePath,
		TokenSecret:  *tokenSecret,
		AllowedUsers: allowed,
		RateLimit:    rateLimit,
		TokenTTL:     tokenTTL,
	}, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitUsers(raw string) []string {
	var users []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			users = append(users, name)
		}
	}
	return users
}
