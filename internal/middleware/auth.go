package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/metrics"
)

// APIKeyMiddleware rejects any request whose Authorization header does not
// match the configured key. The raw key is expected; no scheme prefix.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				log.Warn().
					Str("path", r.URL.Path).
					Str("client_ip", GetClientIP(r)).
					Msg("rejected request with invalid api key")
				metrics.AuthFailuresTotal.Inc()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
