package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Line is one cart line joined with the live game row.
type Line struct {
	GameID   uuid.UUID       `gorm:"column:game_id"`
	Title    string          `gorm:"column:title"`
	Price    decimal.Decimal `gorm:"column:price"`
	Stock    int             `gorm:"column:stock"`
	Quantity int             `gorm:"column:quantity"`
}

// LineTotal returns price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository reads the cart snapshot used by placement and quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Snapshot(ctx context.Context, userID uuid.UUID) ([]Line, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Snapshot joins the user's cart with current prices and stock, ordered by
// game id.
func (r *repository) Snapshot(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.game_id, games.title, games.price, games.stock, cart_items.quantity").
		Joins("JOIN games ON games.id = cart_items.game_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.game_id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
