package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled HTTP requests
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinote_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "path", "status"})

	// RequestDuration observes request latency
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinote_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// AuthFailures counts rejected authentication attempts
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinote_auth_failures_total",
		Help: "Total number of failed authentication attempts",
	})

	// AuditEntries counts written audit entries by action
	AuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinote_audit_entries_total",
		Help: "Total number of audit log entries written",
	}, []string{"action"})

	// NoteGenerations counts AI note-generation outcomes
	NoteGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinote_note_generations_total",
		Help: "Total number of AI note generation calls",
	}, []string{"outcome"}) // generated, cached, failed
)
