package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	m := NewCheckoutMetrics(prometheus.NewRegistry())
	m.ObservePlacement(OutcomeSuccess, 20*time.Millisecond)
	m.ObservePlacement(OutcomeSuccess, 10*time.Millisecond)
	m.ObservePlacement(OutcomeStockRace, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.placements.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.placements.WithLabelValues(OutcomeStockRace)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.placements))

	var sample dto.Metric
	require.NoError(t, m.duration.Write(&sample))
	assert.EqualValues(t, 3, sample.GetHistogram().GetSampleCount())
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	assert.Nil(t, NewCheckoutMetrics(nil))
	var m *CheckoutMetrics
	assert.NotPanics(t, func() { m.ObservePlacement(OutcomeError, time.Second) })
}
