package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Game is a catalog item. Stock is only ever decremented by order placement.
type Game struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string           `gorm:"column:title;not null"`
	Description string           `gorm:"column:description;not null"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	Genre       string           `gorm:"column:genre;not null"`
	Platform    string           `gorm:"column:platform;not null"`
	ImageURL    string           `gorm:"column:image_url;not null"`
	Rating      *decimal.Decimal `gorm:"column:rating;type:numeric(2,1)"`
	ReleaseDate *time.Time       `gorm:"column:release_date;type:date"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	VideoURL    *string          `gorm:"column:video_url"`
	Specs       *string          `gorm:"column:specs"`
	Developer   *string          `gorm:"column:developer"`
	Publisher   *string          `gorm:"column:publisher"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *Game) BeforeCreate(*gorm.DB) error {
	g.ID = ensureID(g.ID)
	return nil
}
