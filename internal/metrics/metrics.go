package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "briar_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	AuthFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briar_auth_failures_total",
		Help: "Total number of rejected API requests",
	})
)

// Punishment metrics
var (
	PunishmentsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_punishments_issued_total",
		Help: "Total number of punishments issued",
	}, []string{"type"})

	PunishmentsRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_punishments_removed_total",
		Help: "Total number of punishments removed",
	}, []string{"type"})

	PunishmentsRolledBackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briar_punishments_rolled_back_total",
		Help: "Total number of punishments deleted by rollback",
	})

	ExpiredPunishmentsCleanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briar_expired_punishments_cleaned_total",
		Help: "Total number of expired punishments removed by the sweep",
	})
)

// Gauges updated periodically by the collector
var (
	ActivePunishmentsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "briar_active_punishments_total",
		Help: "Number of currently active punishments",
	})
)

// Delivery metrics
var (
	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts",
	}, []string{"status"})

	CommandsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_commands_dispatched_total",
		Help: "Total number of dispatched elevated commands",
	}, []string{"command"})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		switch segments[2] {
		case "punishments", "auditlog", "evidence", "commands":
			if len(segments) == 3 {
				return path
			}
			return "/api/v1/" + segments[2] + "/:id"
		}
	}
	return path
}

func splitPath(path string) []string {
	// Skip leading slash
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	// Split on /
	var segments []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}
	return segments
}
