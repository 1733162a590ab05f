package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Placement outcomes.
const (
	OutcomeSuccess           = "success"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeStockRace         = "stock_race"
	OutcomeDuplicate         = "duplicate"
	OutcomeError             = "error"
)

// CheckoutMetrics tracks order placement attempts.
type CheckoutMetrics struct {
	placements *prometheus.CounterVec
	duration   prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return nil
	}
	placements := newCounterVec("checkout", "placements_total", "Order placement attempts by outcome.", "outcome")
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "placement_duration_seconds",
		Help:      "Duration of order placement transactions in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(placements, duration)
	return &CheckoutMetrics{placements: placements, duration: duration}
}

// ObservePlacement records one placement attempt.
func (c *CheckoutMetrics) ObservePlacement(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.placements.WithLabelValues(normalizeLabel(outcome)).Inc()
	c.duration.Observe(elapsed.Seconds())
}
