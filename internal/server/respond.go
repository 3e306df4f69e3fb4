package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sisihe/sisiexpense/internal/service"
	"github.com/sisihe/sisiexpense/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// writeServiceError maps service and storage errors onto the HTTP surface.
// Every branch keeps a distinct machine-readable code so clients do not
// have to parse human text.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUser):
		writeError(w, http.StatusForbidden, "invalid_user", "user is not allowed")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "expense not found")
	case errors.Is(err, service.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "invalid_value", "price must be a non-negative number")
	case errors.Is(err, storage.ErrCorrupt):
		writeError(w, http.StatusInternalServerError, "store_corrupt", "ledger state could not be read")
	case errors.Is(err, storage.ErrPersistFailed):
		writeError(w, http.StatusInternalServerError, "store_persist_failed", "ledger state could not be written")
	default:
		slog.Error("Unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
