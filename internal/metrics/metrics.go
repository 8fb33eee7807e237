// Package metrics exposes Prometheus counters for the account lifecycle and
// the HTTP rate limiter.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_lifecycle_operations_total",
			Help: "Account lifecycle operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter decisions by route and result.",
		},
		[]string{"route", "result"},
	)

	registry = prometheus.NewRegistry()
	once     sync.Once
)

// Registry returns the registry holding the service collectors.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry.MustRegister(
			lifecycleOps,
			rateLimitDecisions,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}

// RecordOperation counts one lifecycle call.
func RecordOperation(operation, outcome string) {
	lifecycleOps.WithLabelValues(operation, outcome).Inc()
}

// RecordRateLimit counts one limiter decision; result is "allowed" or "blocked".
func RecordRateLimit(route, result string) {
	rateLimitDecisions.WithLabelValues(route, result).Inc()
}
