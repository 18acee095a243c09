// Package metrics provides Prometheus metrics for routing and execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DirectivesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_directives_routed_total",
			Help: "Total number of directives routed, by selected agency",
		},
		[]string{"agency"},
	)
	TasksFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_tasks_total",
			Help: "Total number of tasks finalized, by final outcome",
		},
		[]string{"outcome"},
	)
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_attempts_total",
			Help: "Total number of backend invocation attempts",
		},
		[]string{"backend", "outcome"},
	)
	TierAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_tier_attempts_total",
			Help: "Total number of attempts by backend tier",
		},
		[]string{"tier"},
	)
	Fallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_fallbacks_total",
			Help: "Total number of tasks that succeeded on a fallback backend",
		},
	)
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "herald_attempt_duration_seconds",
			Help:    "Backend invocation duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)
)

// RecordRouted increments the routed-directive counter for an agency.
func RecordRouted(agency string) {
	DirectivesRouted.WithLabelValues(agency).Inc()
}

// RecordAttempt records one backend invocation attempt.
func RecordAttempt(backendID, tier, outcome string, duration time.Duration) {
	Attempts.WithLabelValues(backendID, outcome).Inc()
	TierAttempts.WithLabelValues(tier).Inc()
	AttemptDuration.WithLabelValues(backendID).Observe(duration.Seconds())
}

// RecordTask records a finalized task.
func RecordTask(outcome string, fallbackUsed bool) {
	TasksFinalized.WithLabelValues(outcome).Inc()
	if fallbackUsed {
		Fallbacks.Inc()
	}
}
