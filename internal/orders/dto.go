package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

// OrderDTO is the order shape returned to customers and admins.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	Status           enums.OrderStatus `json:"status"`
	Total            decimal.Decimal   `json:"total"`
	PaymentReference *string           `json:"payment_reference,omitempty"`
	Items            []OrderItemDTO    `json:"items"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OrderItemDTO carries the snapshotted title and price of a line.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	GameID    uuid.UUID       `json:"game_id"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderList is one page of orders.
type OrderList = pagination.Page[OrderDTO]

// NewOrderDTO maps an order and its preloaded lines.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		Total:            order.Total.Round(2),
		PaymentReference: order.PaymentReference,
		Items:            make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			GameID:    item.GameID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     item.Price.Round(2),
			LineTotal: item.LineTotal().Round(2),
		}
		if item.Game != nil {
			line.ImageURL = item.Game.ImageURL
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

func newOrderList(page pagination.Page[models.Order]) *OrderList {
	items := make([]OrderDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewOrderDTO(&page.Items[i]))
	}
	return &OrderList{Items: items, NextCursor: page.NextCursor}
}
