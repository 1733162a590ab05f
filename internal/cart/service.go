package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

// Service exposes cart operations for the authenticated user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID, gameID uuid.UUID, quantity int) (*CartDTO, error)
	SetQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, gameID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type service struct {
	repo  CartRepository
	games gameLoader
	logg  *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, games gameLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if games == nil {
		return nil, fmt.Errorf("game loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, games: games, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return NewCartDTO(items), nil
}

// AddItem treats a zero quantity as one.
func (s *service) AddItem(ctx context.Context, userID, gameID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.ensureGame(ctx, gameID); err != nil {
		return nil, err
	}
	if err := s.repo.AddQuantity(ctx, userID, gameID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"game_id": gameID.String(), "quantity": quantity}), "cart item added")
	return s.Get(ctx, userID)
}

// SetQuantity deletes the line when quantity is zero or below.
func (s *service) SetQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, gameID)
	}
	if err := s.ensureGame(ctx, gameID); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, userID, gameID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set cart quantity")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, gameID uuid.UUID) (*CartDTO, error) {
	if _, err := s.repo.DeleteItem(ctx, userID, gameID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.repo.DeleteStale(ctx, before)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stale cart items")
	}
	return deleted, nil
}

func (s *service) ensureGame(ctx context.Context, gameID uuid.UUID) error {
	if _, err := s.games.FindByID(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "game not found").
				WithDetails(map[string]any{"game_id": gameID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}
	return nil
}
