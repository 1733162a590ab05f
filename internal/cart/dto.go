package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
)

// LineDTO is one cart line priced from the live catalog.
type LineDTO struct {
	GameID    uuid.UUID       `json:"game_id"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"image_url"`
	Platform  string          `json:"platform"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	InStock   bool            `json:"in_stock"`
}

// CartDTO is the cart view returned to clients.
type CartDTO struct {
	Items     []LineDTO       `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// NewCartDTO prices the lines. Lines whose game vanished are skipped.
func NewCartDTO(items []models.CartItem) *CartDTO {
	view := &CartDTO{Items: make([]LineDTO, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		if item.Game == nil {
			continue
		}
		price := item.Game.Price.Round(2)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, LineDTO{
			GameID:    item.GameID,
			Title:     item.Game.Title,
			ImageURL:  item.Game.ImageURL,
			Platform:  item.Game.Platform,
			UnitPrice: price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
			Stock:     item.Game.Stock,
			InStock:   item.Game.Stock >= item.Quantity,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
		view.ItemCount += item.Quantity
	}
	return view
}
