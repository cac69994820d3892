package api

import (
	"log/slog"
	"net/http"
)

// healthHandler is a simple health check endpoint for container probes.
// Returns 200 OK with {"status":"ok"}.
func healthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
