package routing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tangled.org/briar.gg/briar/internal/handlers"
	"tangled.org/briar.gg/briar/internal/middleware"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	APIKey   string
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// API routes. Method dispatch happens inside the handlers so that
	// unsupported methods get the API's own 405 body instead of the mux
	// default.
	auth := middleware.APIKeyMiddleware(cfg.APIKey)
	mux.Handle("/api/v1/punishments", auth(http.HandlerFunc(h.HandlePunishments)))
	mux.Handle("/api/v1/auditlog", auth(http.HandlerFunc(h.HandleAuditLog)))
	mux.Handle("/api/v1/evidence", auth(http.HandlerFunc(h.HandleEvidence)))
	mux.Handle("/api/v1/commands", auth(http.HandlerFunc(h.HandleCommands)))

	// Operational endpoints, outside the api-key boundary
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Apply security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 2. Apply logging middleware (outermost - wraps everything)
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	return handler
}
