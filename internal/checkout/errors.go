package checkout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
)

// ErrEmptyCart is returned when the user has nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// InsufficientStockError names the first line whose quantity exceeds stock.
type InsufficientStockError struct {
	GameID    uuid.UUID
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Title, e.Requested, e.Available)
}

// StockRaceError means another placement consumed the stock between the
// snapshot and the conditional decrement.
type StockRaceError struct {
	GameID uuid.UUID
	Title  string
}

func (e *StockRaceError) Error() string {
	return fmt.Sprintf("stock for %q changed during checkout", e.Title)
}

// translate maps placement failures onto API error codes while keeping the
// domain error reachable through errors.Is/As.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var (
		insufficient *InsufficientStockError
		race         *StockRaceError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart is empty")
	case errors.As(err, &insufficient):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "insufficient stock").
			WithDetails(map[string]any{
				"game_id":   insufficient.GameID,
				"title":     insufficient.Title,
				"requested": insufficient.Requested,
				"available": insufficient.Available,
			})
	case errors.As(err, &race):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "stock changed during checkout, please retry").
			WithDetails(map[string]any{"game_id": race.GameID, "title": race.Title})
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
}
