package enums

import "slices"

// OrderStatus tracks an order from payment to delivery.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// orderLifecycle lists statuses in the only order they may advance.
var orderLifecycle = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	return s.position() >= 0
}

// CanTransitionTo allows only forward moves along the lifecycle.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, to := s.position(), next.position()
	return from >= 0 && to > from
}

func (s OrderStatus) position() int {
	return slices.Index(orderLifecycle, s)
}

// ParseOrderStatus accepts any case and surrounding whitespace.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", value, orderLifecycle)
}
