package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gamestore-backend/api/middleware"
	"github.com/angelmondragon/gamestore-backend/api/responses"
	"github.com/angelmondragon/gamestore-backend/api/validators"
	cartsvc "github.com/angelmondragon/gamestore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

type addItemRequest struct {
	GameID   uuid.UUID `json:"game_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=99"`
}

// cartCall runs against the authenticated shopper's cart and returns the
// body to send back.
type cartCall func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, r *http.Request) (any, error)

// shopperHandler resolves the service and the caller before invoking call.
func shopperHandler(svc cartsvc.Service, logg *logger.Logger, call cartCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.UserUUIDFromContext(ctx)
		if err == nil {
			var body any
			if body, err = call(ctx, svc, userID, r); err == nil {
				responses.WriteSuccess(w, body)
				return
			}
		}
		responses.WriteError(ctx, logg, w, err)
	}
}

// CartFetch returns the caller's cart with live prices and stock.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopperHandler(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, _ *http.Request) (any, error) {
		return svc.Get(ctx, userID)
	})
}

// CartAddItem adds to the quantity already in the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopperHandler(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, r *http.Request) (any, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddItem(ctx, userID, payload.GameID, payload.Quantity)
	})
}

// CartSetQuantity replaces a line's quantity; zero removes the line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopperHandler(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, r *http.Request) (any, error) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			return nil, err
		}
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetQuantity(ctx, userID, gameID, *payload.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopperHandler(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, r *http.Request) (any, error) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(ctx, userID, gameID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopperHandler(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID uuid.UUID, _ *http.Request) (any, error) {
		if err := svc.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return cartsvc.NewCartDTO(nil), nil
	})
}
