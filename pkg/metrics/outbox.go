package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts what the outbox publisher did with each row.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dlq       *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return nil
	}
	m := &OutboxMetrics{
		published: newCounterVec("outbox", "published_total", "Outbox events published to Pub/Sub.", "event_type"),
		failed:    newCounterVec("outbox", "publish_failures_total", "Retryable outbox publish failures.", "event_type"),
		dlq:       newCounterVec("outbox", "dlq_total", "Outbox events moved to the dead letter table.", "event_type", "reason"),
	}
	reg.MustRegister(m.published, m.failed, m.dlq)
	return m
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o != nil {
		o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
	}
}

func (o *OutboxMetrics) IncFailed(eventType string) {
	if o != nil {
		o.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
	}
}

func (o *OutboxMetrics) IncDLQ(eventType, reason string) {
	if o != nil {
		o.dlq.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
	}
}
