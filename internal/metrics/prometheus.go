// Package metrics exposes Prometheus instrumentation for the API and the
// entitlement subsystem.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "focusflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "focusflow",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Quota metrics
	quotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "focusflow",
			Subsystem: "quota",
			Name:      "denials_total",
			Help:      "Total number of session creations denied by the daily limit",
		},
		[]string{"plan"},
	)

	quotaStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "focusflow",
			Subsystem: "quota",
			Name:      "store_errors_total",
			Help:      "Total number of usage-counter store failures, by applied policy",
		},
		[]string{"policy"},
	)

	// Checkout metrics
	checkoutSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "focusflow",
			Subsystem: "billing",
			Name:      "checkout_sessions_total",
			Help:      "Total number of checkout sessions created",
		},
		[]string{"target_plan", "outcome"},
	)
)

// Collector records application telemetry. A single instance is shared by the
// HTTP chassis and the domain services.
type Collector struct{}

// NewCollector creates a Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records request latency and count for one completed request.
func (c *Collector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordQuotaDenial records a session creation blocked by the daily limit.
func (c *Collector) RecordQuotaDenial(plan string) {
	quotaDenialsTotal.WithLabelValues(plan).Inc()
}

// RecordQuotaStoreError records a usage-counter store failure and the policy
// that decided the outcome.
func (c *Collector) RecordQuotaStoreError(policy string) {
	quotaStoreErrorsTotal.WithLabelValues(policy).Inc()
}

// RecordCheckoutSession records a checkout session attempt.
func (c *Collector) RecordCheckoutSession(targetPlan, outcome string) {
	checkoutSessionsTotal.WithLabelValues(targetPlan, outcome).Inc()
}
