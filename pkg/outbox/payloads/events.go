package payloads

import (
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted once per successful order placement.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID          `json:"order_id"`
	UserID           uuid.UUID          `json:"user_id"`
	Total            string             `json:"total"`
	Status           enums.OrderStatus  `json:"status"`
	PaymentReference *string            `json:"payment_reference,omitempty"`
	Items            []OrderCreatedItem `json:"items"`
}

// OrderCreatedItem mirrors one order line.
type OrderCreatedItem struct {
	GameID   uuid.UUID `json:"game_id"`
	Title    string    `json:"title"`
	Quantity int       `json:"quantity"`
	Price    string    `json:"price"`
}

// OrderStatusChangedEvent is emitted when an admin advances an order.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// GameOutOfStockEvent is emitted when a placement drains a game's stock.
type GameOutOfStockEvent struct {
	GameID  uuid.UUID `json:"game_id"`
	Title   string    `json:"title"`
	OrderID uuid.UUID `json:"order_id"`
}
