package enums

import "slices"

// OutboxAggregateType is the aggregate_type column.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateGame  OutboxAggregateType = "game"
)

var aggregateTypes = []OutboxAggregateType{AggregateOrder, AggregateGame}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", value, aggregateTypes)
}

// OutboxEventType is the event_type column and doubles as the published
// envelope's event name.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventGameOutOfStock     OutboxEventType = "game_out_of_stock"
)

var eventTypes = []OutboxEventType{EventOrderCreated, EventOrderStatusChanged, EventGameOutOfStock}

func (e OutboxEventType) IsValid() bool { return slices.Contains(eventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, eventTypes)
}

// OutboxDLQErrorReason records why a row left the outbox for the dead-letter
// table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
