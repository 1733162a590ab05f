package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

const releaseDateLayout = "2006-01-02"

// GameDTO is the public catalog shape.
type GameDTO struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Genre       string           `json:"genre"`
	Platform    string           `json:"platform"`
	ImageURL    string           `json:"image_url"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReleaseDate *string          `json:"release_date,omitempty"`
	Stock       int              `json:"stock"`
	InStock     bool             `json:"in_stock"`
	VideoURL    *string          `json:"video_url,omitempty"`
	Specs       *string          `json:"specs,omitempty"`
	Developer   *string          `json:"developer,omitempty"`
	Publisher   *string          `json:"publisher,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewGameDTO maps a model to its transport shape.
func NewGameDTO(g *models.Game) GameDTO {
	dto := GameDTO{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Price:       g.Price.Round(2),
		Genre:       g.Genre,
		Platform:    g.Platform,
		ImageURL:    g.ImageURL,
		Rating:      g.Rating,
		Stock:       g.Stock,
		InStock:     g.Stock > 0,
		VideoURL:    g.VideoURL,
		Specs:       g.Specs,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.ReleaseDate != nil {
		formatted := g.ReleaseDate.Format(releaseDateLayout)
		dto.ReleaseDate = &formatted
	}
	return dto
}

// ListParams are the browse filters. Nil pointers mean "no filter".
type ListParams struct {
	Genre      string
	Platform   string
	Query      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    *bool
	Pagination pagination.Params
}

// ListResult is one page of games.
type ListResult = pagination.Page[GameDTO]

// Facets lists the distinct values a client can filter on.
type Facets struct {
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
}

// CreateGameInput is the admin create payload.
type CreateGameInput struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"required"`
	Price       decimal.Decimal  `json:"price"`
	Genre       string           `json:"genre" validate:"required,max=60"`
	Platform    string           `json:"platform" validate:"required,max=120"`
	ImageURL    string           `json:"image_url" validate:"required,url"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReleaseDate *string          `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	VideoURL    *string          `json:"video_url,omitempty" validate:"omitempty,url"`
	Specs       *string          `json:"specs,omitempty"`
	Developer   *string          `json:"developer,omitempty" validate:"omitempty,max=120"`
	Publisher   *string          `json:"publisher,omitempty" validate:"omitempty,max=120"`
}

// UpdateGameInput is a partial update; nil fields are left untouched.
type UpdateGameInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Genre       *string          `json:"genre,omitempty" validate:"omitempty,min=1,max=60"`
	Platform    *string          `json:"platform,omitempty" validate:"omitempty,min=1,max=120"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReleaseDate *string          `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	VideoURL    *string          `json:"video_url,omitempty" validate:"omitempty,url"`
	Specs       *string          `json:"specs,omitempty"`
	Developer   *string          `json:"developer,omitempty" validate:"omitempty,max=120"`
	Publisher   *string          `json:"publisher,omitempty" validate:"omitempty,max=120"`
}

// SeedResult reports how many sample games were inserted.
type SeedResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}
