package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// SessionValidations counts validator outcomes
	// (valid|unauthenticated|invalid|account|conflict|error).
	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_session_validations_total",
			Help: "Total number of session validations by outcome",
		},
		[]string{"outcome"},
	)

	// SessionsStarted counts sessions created by the login flow.
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_sessions_started_total",
			Help: "Total number of sessions created",
		},
	)

	// SessionsTerminated counts explicit logouts that deactivated a session.
	SessionsTerminated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_sessions_terminated_total",
			Help: "Total number of sessions terminated by logout",
		},
	)

	// SessionCleanup counts rows affected by the cleanup job (expired|purged).
	SessionCleanup = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_session_cleanup_rows_total",
			Help: "Rows affected by session cleanup runs",
		},
		[]string{"kind"},
	)

	// MaintenanceRuns counts background job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_maintenance_runs_total",
			Help: "Background maintenance job executions",
		},
		[]string{"job", "result"},
	)

	// AuditWriteFailures counts audit entries that could not be recorded.
	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_audit_write_failures_total",
			Help: "Audit events dropped because the audit sink failed",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
