package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gamestore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	pkgstripe "github.com/angelmondragon/gamestore-backend/pkg/stripe"
)

// MetadataUserID is the checkout session metadata key the webhook reads.
const MetadataUserID = "user_id"

var hundred = decimal.NewFromInt(100)

// SessionResult is returned to the client so it can redirect to Stripe.
type SessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionService prices the cart and opens a hosted Stripe checkout.
type SessionService interface {
	CreateSession(ctx context.Context, userID uuid.UUID) (*SessionResult, error)
}

type sessionService struct {
	checkout Service
	stripe   pkgstripe.CheckoutSessionCreator
	cfg      config.StripeConfig
	logg     *logger.Logger
}

// NewSessionService wires the Stripe session flow. creator may not be nil.
func NewSessionService(checkout Service, creator pkgstripe.CheckoutSessionCreator, cfg config.StripeConfig, logg *logger.Logger) (SessionService, error) {
	if checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if creator == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &sessionService{checkout: checkout, stripe: creator, cfg: cfg, logg: logg}, nil
}

func (s *sessionService) CreateSession(ctx context.Context, userID uuid.UUID) (*SessionResult, error) {
	quote, err := s.checkout.Quote(ctx, userID)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(s.cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(userID.String()),
		Metadata:          map[string]string{MetadataUserID: userID.String()},
		LineItems:         make([]*stripe.CheckoutSessionLineItemParams, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(line.Title),
					Metadata: map[string]string{"game_id": line.GameID.String()},
				},
				UnitAmount: stripe.Int64(toCents(line.Price)),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_id": session.ID,
		"total":      quote.Total.StringFixed(2),
	}), "stripe checkout session created")
	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}

func toCents(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}
