// Package handler exposes the HTTP API over the list, group, and push
// services.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/ladle/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders a service error as the shared envelope
// {"error":{"code","message"}} with the status mapped from its kind.
// Upstream causes are logged, never surfaced.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	if status >= 500 {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(apperr.KindOf(err)),
			"message": apperr.ClientMessage(err),
		},
	})
}

func writeValidation(w http.ResponseWriter, logger *slog.Logger, format string, args ...any) {
	writeError(w, logger, apperr.Validation(format, args...))
}
