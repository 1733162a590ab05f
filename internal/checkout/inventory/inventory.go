// Package inventory applies conditional stock decrements inside a caller's
// transaction.
package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
)

// DecrementRequest asks for qty units of one game.
type DecrementRequest struct {
	GameID uuid.UUID
	Qty    int
}

// DecrementResult reports the stock left after a successful decrement.
type DecrementResult struct {
	GameID    uuid.UUID
	Qty       int
	Remaining int
}

// RaceError means the stock row no longer covered the request when the
// update ran.
type RaceError struct {
	GameID uuid.UUID
}

func (e *RaceError) Error() string {
	return fmt.Sprintf("stock for game %s changed during placement", e.GameID)
}

// Decrement runs UPDATE games SET stock = stock - qty WHERE stock >= qty for
// each request in ascending game id order. It stops at the first request that
// matches no row and returns a *RaceError; the caller rolls back.
func Decrement(ctx context.Context, tx *gorm.DB, requests []DecrementRequest) ([]DecrementResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	ordered := make([]DecrementRequest, len(requests))
	copy(ordered, requests)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].GameID.String() < ordered[j].GameID.String()
	})

	results := make([]DecrementResult, 0, len(ordered))
	for _, req := range ordered {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"game_id": req.GameID})
		}
		res := tx.WithContext(ctx).
			Model(&models.Game{}).
			Where("id = ? AND stock >= ?", req.GameID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, &RaceError{GameID: req.GameID}
		}

		var remaining []int
		if err := tx.WithContext(ctx).
			Model(&models.Game{}).
			Where("id = ?", req.GameID).
			Pluck("stock", &remaining).Error; err != nil {
			return nil, err
		}
		if len(remaining) != 1 {
			return nil, &RaceError{GameID: req.GameID}
		}
		results = append(results, DecrementResult{GameID: req.GameID, Qty: req.Qty, Remaining: remaining[0]})
	}
	return results, nil
}
