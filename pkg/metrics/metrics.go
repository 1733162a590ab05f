// Package metrics holds the Prometheus collectors exported by the storefront
// binaries. Every type tolerates a nil receiver and a nil registerer so that
// callers never need to guard metric calls.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace prefixes every exported metric.
const namespace = "gamestore"

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
