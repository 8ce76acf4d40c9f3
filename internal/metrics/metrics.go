// Package metrics holds Prometheus instruments that are used across the
// application.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SiteWritesTotal counts per-backend write attempts.  backend is
	// "relational" or "document", op is create/update/delete, outcome is
	// ok/error/skipped.
	SiteWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_writes_total",
			Help: "Website record writes by backend, operation, and outcome.",
		}, []string{"backend", "op", "outcome"})

	// SiteReadsTotal counts single-record reads by the copy that served them.
	SiteReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_reads_total",
			Help: "Website record reads by provenance.",
		}, []string{"provenance"})

	ContentGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_generations_total",
			Help: "Content generations by outcome (document, raw, fallback).",
		}, []string{"outcome"})

	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Signup and login attempts by operation and outcome.",
		}, []string{"op", "outcome"})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of sessions currently held by the session store.",
		})
)

func init() {
	prometheus.MustRegister(
		SiteWritesTotal,
		SiteReadsTotal,
		ContentGenerationsTotal,
		AuthAttemptsTotal,
		ActiveSessions,
	)
}
