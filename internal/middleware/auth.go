package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/ladle/internal/auth"
)

// RequireAuth validates the bearer token and puts the caller's uid on
// the request context. API clients get a JSON 401, never a redirect.
func RequireAuth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			uid, err := verifier.Verify(token)
			if err != nil || uid == "" {
				unauthorized(w)
				return
			}

			ctx := auth.WithUID(r.Context(), uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "unauthorized",
			"message": "missing or invalid token",
		},
	})
}
