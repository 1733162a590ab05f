package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/api/middleware"
	internalorders "github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

type stubOrders struct {
	listUser    uuid.UUID
	listParams  pagination.Params
	getUser     uuid.UUID
	getOrder    uuid.UUID
	filters     internalorders.AdminFilters
	updateInput internalorders.UpdateStatusInput
	err         error
}

func (s *stubOrders) ListForUser(_ context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	s.listUser, s.listParams = userID, params
	return &internalorders.OrderList{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrders) GetForUser(_ context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.getUser, s.getOrder = userID, orderID
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, UserID: userID, Status: enums.OrderStatusPaid}, nil
}

func (s *stubOrders) AdminList(_ context.Context, filters internalorders.AdminFilters, _ pagination.Params) (*internalorders.OrderList, error) {
	s.filters = filters
	return &internalorders.OrderList{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrders) UpdateStatus(_ context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.updateInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: input.OrderID, Status: input.Status}, nil
}

func ordersRouter(svc internalorders.Service) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/orders", List(svc, logg))
	r.Get("/orders/{orderId}", Detail(svc, logg))
	r.Get("/admin/orders", AdminList(svc, logg))
	r.Patch("/admin/orders/{orderId}/status", AdminUpdateStatus(svc, logg))
	return r
}

func do(h http.Handler, userID uuid.UUID, role enums.UserRole, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req.WithContext(ctx))
	return resp
}

func TestListUsesCallerAndPagination(t *testing.T) {
	svc := &stubOrders{}
	userID := uuid.New()

	resp := do(ordersRouter(svc), userID, enums.UserRoleCustomer, http.MethodGet, "/orders?limit=5&cursor=abc", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, userID, svc.listUser)
	require.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.listParams)

	resp = do(ordersRouter(svc), userID, enums.UserRoleCustomer, http.MethodGet, "/orders?limit=-1", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDetail(t *testing.T) {
	svc := &stubOrders{}
	userID, orderID := uuid.New(), uuid.New()

	resp := do(ordersRouter(svc), userID, enums.UserRoleCustomer, http.MethodGet, "/orders/"+orderID.String(), "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, userID, svc.getUser)
	require.Equal(t, orderID, svc.getOrder)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	resp = do(ordersRouter(svc), userID, enums.UserRoleCustomer, http.MethodGet, "/orders/"+orderID.String(), "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminListFilters(t *testing.T) {
	svc := &stubOrders{}
	buyer := uuid.New()

	resp := do(ordersRouter(svc), uuid.New(), enums.UserRoleAdmin, http.MethodGet, "/admin/orders?status=shipped&user_id="+buyer.String(), "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.filters.Status)
	require.Equal(t, enums.OrderStatusShipped, *svc.filters.Status)
	require.Equal(t, buyer, *svc.filters.UserID)

	resp = do(ordersRouter(svc), uuid.New(), enums.UserRoleAdmin, http.MethodGet, "/admin/orders?status=lost", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(ordersRouter(svc), uuid.New(), enums.UserRoleAdmin, http.MethodGet, "/admin/orders?user_id=someone", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := &stubOrders{}
	adminID, orderID := uuid.New(), uuid.New()
	target := "/admin/orders/" + orderID.String() + "/status"

	resp := do(ordersRouter(svc), adminID, enums.UserRoleAdmin, http.MethodPatch, target, `{"status":"processing"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, internalorders.UpdateStatusInput{
		OrderID:     orderID,
		Status:      enums.OrderStatusProcessing,
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	}, svc.updateInput)

	resp = do(ordersRouter(svc), adminID, enums.UserRoleAdmin, http.MethodPatch, target, `{"status":"refunded"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transition")
	resp = do(ordersRouter(svc), adminID, enums.UserRoleAdmin, http.MethodPatch, target, `{"status":"paid"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
