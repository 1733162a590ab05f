package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
)

// ValidateStock checks every line before anything is written.
func ValidateStock(lines []Line) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range lines {
		if line.Quantity > line.Stock {
			return &InsufficientStockError{
				GameID:    line.GameID,
				Title:     line.Title,
				Requested: line.Quantity,
				Available: line.Stock,
			}
		}
	}
	return nil
}

// ComputeTotal sums price times quantity over the snapshot.
func ComputeTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total.Round(2)
}

// materialize builds the paid order and its lines from snapshot prices.
func materialize(userID uuid.UUID, lines []Line, paymentReference *string) (*models.Order, []models.OrderItem) {
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           userID,
		Total:            ComputeTotal(lines),
		Status:           enums.OrderStatusPaid,
		PaymentReference: paymentReference,
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ID:       uuid.New(),
			OrderID:  order.ID,
			GameID:   line.GameID,
			Title:    line.Title,
			Quantity: line.Quantity,
			Price:    line.Price.Round(2),
		})
	}
	return order, items
}
