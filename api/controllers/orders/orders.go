package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gamestore-backend/api/middleware"
	"github.com/angelmondragon/gamestore-backend/api/responses"
	"github.com/angelmondragon/gamestore-backend/api/validators"
	internalorders "github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

func handle(svc internalorders.Service, logg *logger.Logger, call func(context.Context, internalorders.Service, *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		body, err := call(r.Context(), svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, body)
	}
}

// List returns the caller's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc internalorders.Service, r *http.Request) (any, error) {
		userID, err := middleware.UserUUIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		return svc.ListForUser(ctx, userID, params)
	})
}

// Detail returns one of the caller's orders. Orders of other users are
// reported as missing.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc internalorders.Service, r *http.Request) (any, error) {
		userID, err := middleware.UserUUIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.GetForUser(ctx, userID, orderID)
	})
}

// AdminList pages through every order, optionally filtered by status or user.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc internalorders.Service, r *http.Request) (any, error) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		filters, err := parseAdminFilters(r)
		if err != nil {
			return nil, err
		}
		return svc.AdminList(ctx, filters, params)
	})
}

func invalidFilter(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
}

func parseAdminFilters(r *http.Request) (internalorders.AdminFilters, error) {
	var filters internalorders.AdminFilters
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, invalidFilter("status", err)
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, invalidFilter("user_id", err)
		}
		filters.UserID = &id
	}
	return filters, nil
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid processing shipped delivered"`
}

// AdminUpdateStatus moves an order forward through its lifecycle.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc internalorders.Service, r *http.Request) (any, error) {
		actorID, err := middleware.UserUUIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		return svc.UpdateStatus(ctx, internalorders.UpdateStatusInput{
			OrderID:     orderID,
			Status:      status,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(ctx),
		})
	})
}
