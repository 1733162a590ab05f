package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/internal/cart"
	"github.com/angelmondragon/gamestore-backend/internal/checkout/inventory"
	"github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	"github.com/angelmondragon/gamestore-backend/pkg/metrics"
	"github.com/angelmondragon/gamestore-backend/pkg/outbox"
	"github.com/angelmondragon/gamestore-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service places orders from the user's server-side cart.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, opts ...PlaceOption) (*models.Order, error)
	Quote(ctx context.Context, userID uuid.UUID) (*Quote, error)
}

// Quote is the validated, priced cart without any writes.
type Quote struct {
	Lines []Line
	Total decimal.Decimal
}

// PlaceOption tweaks a single placement.
type PlaceOption func(*placeOptions)

type placeOptions struct {
	paymentReference *string
}

// WithPaymentReference records the payment provider's reference on the order.
// A second placement with the same reference returns the first order.
func WithPaymentReference(ref string) PlaceOption {
	return func(o *placeOptions) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		o.paymentReference = &ref
	}
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	DB         txRunner
	Repo       Repository
	CartRepo   cart.CartRepository
	OrdersRepo orders.Repository
	Outbox     outbox.Emitter
	Metrics    *metrics.CheckoutMetrics
	Logger     *logger.Logger
}

type service struct {
	tx         txRunner
	repo       Repository
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	outbox     outbox.Emitter
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:         params.DB,
		repo:       params.Repo,
		cartRepo:   params.CartRepo,
		ordersRepo: params.OrdersRepo,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       logg,
	}, nil
}

// PlaceOrder snapshots the cart, validates stock, writes the order, adjusts
// inventory and clears the cart in one transaction. Any failure leaves stock,
// orders and cart as they were.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, opts ...PlaceOption) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cfg := placeOptions{}
	for _, opt := range opts {
		opt(&cfg)
	}
	started := time.Now()
	ctx = s.logg.WithUserID(ctx, userID.String())

	if cfg.paymentReference != nil {
		existing, err := s.findByReference(ctx, *cfg.paymentReference)
		if err != nil {
			s.observe(metrics.OutcomeError, started)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment reference")
		}
		if existing != nil {
			s.observe(metrics.OutcomeDuplicate, started)
			s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "payment reference already placed")
			return existing, nil
		}
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.repo.WithTx(tx).Snapshot(ctx, userID)
		if err != nil {
			return err
		}
		if err := ValidateStock(lines); err != nil {
			return err
		}

		order, items := materialize(userID, lines, cfg.paymentReference)
		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return err
		}
		order.Items = items

		adjusted, err := s.adjustInventory(ctx, tx, lines)
		if err != nil {
			return err
		}

		if _, err := s.cartRepo.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}

		if err := s.emitOrderCreated(ctx, tx, order); err != nil {
			return err
		}
		if err := s.emitOutOfStock(ctx, tx, order.ID, lines, adjusted); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		// A concurrent placement with the same reference either trips the
		// unique index or finds the cart already cleared.
		if cfg.paymentReference != nil {
			existing, lookupErr := s.findByReference(ctx, *cfg.paymentReference)
			if lookupErr == nil && existing != nil {
				s.observe(metrics.OutcomeDuplicate, started)
				return existing, nil
			}
		}
		s.observe(outcomeFor(err), started)
		if outcomeFor(err) == metrics.OutcomeError {
			s.logg.Error(ctx, "order placement failed", err)
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "order placement rejected")
		}
		return nil, translate(err)
	}

	s.observe(metrics.OutcomeSuccess, started)
	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, placed.ID.String()), map[string]any{
		"total": placed.Total.StringFixed(2),
		"lines": len(placed.Items),
	}), "order placed")
	return placed, nil
}

func (s *service) Quote(ctx context.Context, userID uuid.UUID) (*Quote, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := s.repo.Snapshot(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	if err := ValidateStock(lines); err != nil {
		return nil, translate(err)
	}
	return &Quote{Lines: lines, Total: ComputeTotal(lines)}, nil
}

func (s *service) adjustInventory(ctx context.Context, tx *gorm.DB, lines []Line) ([]inventory.DecrementResult, error) {
	requests := make([]inventory.DecrementRequest, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, inventory.DecrementRequest{GameID: line.GameID, Qty: line.Quantity})
	}
	results, err := inventory.Decrement(ctx, tx, requests)
	if err != nil {
		var race *inventory.RaceError
		if errors.As(err, &race) {
			return nil, &StockRaceError{GameID: race.GameID, Title: titleOf(lines, race.GameID)}
		}
		return nil, err
	}
	return results, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	items := make([]payloads.OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderCreatedItem{
			GameID:   item.GameID,
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.UserRoleCustomer)},
		Version:       1,
		Data: payloads.OrderCreatedEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			Total:            order.Total.StringFixed(2),
			Status:           order.Status,
			PaymentReference: order.PaymentReference,
			Items:            items,
		},
	})
}

func (s *service) emitOutOfStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []Line, adjusted []inventory.DecrementResult) error {
	for _, res := range adjusted {
		if res.Remaining > 0 {
			continue
		}
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGameOutOfStock,
			AggregateType: enums.AggregateGame,
			AggregateID:   res.GameID,
			Version:       1,
			Data: payloads.GameOutOfStockEvent{
				GameID:  res.GameID,
				Title:   titleOf(lines, res.GameID),
				OrderID: orderID,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) findByReference(ctx context.Context, ref string) (*models.Order, error) {
	order, err := s.ordersRepo.FindByPaymentReference(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (s *service) observe(outcome string, started time.Time) {
	s.metrics.ObservePlacement(outcome, time.Since(started))
}

func outcomeFor(err error) string {
	var (
		insufficient *InsufficientStockError
		race         *StockRaceError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.As(err, &insufficient):
		return metrics.OutcomeInsufficientStock
	case errors.As(err, &race):
		return metrics.OutcomeStockRace
	default:
		return metrics.OutcomeError
	}
}

func titleOf(lines []Line, gameID uuid.UUID) string {
	for _, line := range lines {
		if line.GameID == gameID {
			return line.Title
		}
	}
	return gameID.String()
}
