package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a user's server-side cart. It never carries a price.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	GameID    uuid.UUID `gorm:"column:game_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Game      *Game     `gorm:"foreignKey:GameID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	c.ID = ensureID(c.ID)
	return nil
}
