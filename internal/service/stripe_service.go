package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"parkit/internal/config"
)

// StripeService creates hosted checkout sessions for parking fees. It is
// disabled when no secret key is configured; billing then settles on site.
type StripeService struct {
	enabled    bool
	successURL string
	cancelURL  string
}

func NewStripeService(cfg *config.Config) *StripeService {
	if cfg.StripeSecretKey == "" {
		return &StripeService{}
	}
	stripe.Key = cfg.StripeSecretKey
	return &StripeService{
		enabled:    true,
		successURL: cfg.StripeSuccessURL,
		cancelURL:  cfg.StripeCancelURL,
	}
}

func (s *StripeService) Enabled() bool {
	return s != nil && s.enabled
}

// CreateCheckoutSession returns the hosted payment page URL for the given
// amount in whole currency units.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, amount int64, description string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("inr"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					UnitAmount: stripe.Int64(amount * 100),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}
	return sess.URL, nil
}
