package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the gateway's JSON error envelope from middleware that
// rejects a request before it reaches a handler.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
