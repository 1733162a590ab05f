package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gamestore-backend/internal/checkout"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, opts ...checkout.PlaceOption) (*models.Order, error)
}

type ServiceParams struct {
	Checkout orderPlacer
	Logger   *logger.Logger
}

// Service turns completed Stripe checkout sessions into orders.
type Service struct {
	checkout orderPlacer
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{checkout: params.Checkout, logg: logg}, nil
}

// HandleEvent places the order for paid checkout sessions. Other event types
// are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "checkout session awaiting async payment")
			return nil
		}
		return s.placeOrder(ctx, &session)
	default:
		return nil
	}
}

func (s *Service) placeOrder(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	userID, err := UserIDFromSession(session)
	if err != nil {
		return err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"session_id": session.ID, "user_id": userID.String()})
	order, err := s.checkout.PlaceOrder(ctx, userID, checkout.WithPaymentReference(session.ID))
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order placed from stripe checkout")
	return nil
}

// UserIDFromSession reads metadata.user_id, then metadata.userId, then
// client_reference_id.
func UserIDFromSession(session *stripe.CheckoutSession) (uuid.UUID, error) {
	if session == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session required")
	}
	candidates := []string{
		session.Metadata[checkout.MetadataUserID],
		session.Metadata["userId"],
		session.ClientReferenceID,
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		id, err := uuid.Parse(candidate)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id in checkout session")
		}
		return id, nil
	}
	return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errors.New("no user reference"), "checkout session has no user id")
}
