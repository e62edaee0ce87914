package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// respondError writes the standard JSON error envelope from middleware,
// mirroring the handlers' shape.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(response)
}
