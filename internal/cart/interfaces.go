package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AddQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, userID, gameID uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type gameLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
}
