package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.Observe("stale-cart-cleanup", 250*time.Millisecond, nil)
	m.Observe("stale-cart-cleanup", 40*time.Millisecond, errors.New("db down"))
	m.Observe("", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("stale-cart-cleanup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues("stale-cart-cleanup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("unknown")))

	hist := histogramFor(t, reg, "gamestore_cron_job_duration_seconds", "stale-cart-cleanup")
	assert.EqualValues(t, 2, hist.GetSampleCount())
	assert.InDelta(t, 0.29, hist.GetSampleSum(), 1e-9)
}

func TestOutboxMetricsCounters(t *testing.T) {
	m := NewOutboxMetrics(prometheus.NewRegistry())
	m.IncPublished("order_created")
	m.IncPublished("order_created")
	m.IncFailed("order_created")
	m.IncDLQ("game_out_of_stock", "max_attempts")

	expected := `
# HELP gamestore_outbox_dlq_total Outbox events moved to the dead letter table.
# TYPE gamestore_outbox_dlq_total counter
gamestore_outbox_dlq_total{event_type="game_out_of_stock",reason="max_attempts"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.dlq, strings.NewReader(expected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	assert.Nil(t, NewCronJobMetrics(nil))
	assert.Nil(t, NewOutboxMetrics(nil))

	var cron *CronJobMetrics
	var outbox *OutboxMetrics
	assert.NotPanics(t, func() {
		cron.Observe("job", time.Second, nil)
		outbox.IncPublished("order_created")
		outbox.IncFailed("order_created")
		outbox.IncDLQ("order_created", "non_retryable")
	})
}

func histogramFor(t *testing.T, reg *prometheus.Registry, name, job string) *dto.Histogram {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric.GetHistogram()
				}
			}
		}
	}
	t.Fatalf("histogram %s{job=%q} not found", name, job)
	return nil
}
