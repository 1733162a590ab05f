package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutSessionCreator exposes the single Stripe call the storefront makes.
type CheckoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type checkoutSessionClient struct{}

// NewCheckoutSessionClient returns nil when Stripe is not configured.
func NewCheckoutSessionClient(api *Client) CheckoutSessionCreator {
	if api == nil {
		return nil
	}
	return &checkoutSessionClient{}
}

func (c *checkoutSessionClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}
