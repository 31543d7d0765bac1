package payment

import (
	"context"
	"fmt"

	"github.com/Goodnews119/Marketplacesite/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProcessor struct {
	webhookVerifier
	api     *client.API
	breaker *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

// NewStripeProcessor builds a processor on the Stripe API. backends may be nil
// to use Stripe's defaults.
func NewStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	settings := circuitbreaker.DefaultSettings()
	settings.IsSuccessful = func(err error) bool {
		return err == nil || isClientError(err)
	}

	return &StripeProcessor{
		webhookVerifier: webhookVerifier{secret: webhookSecret},
		api:             client.New(secretKey, backends),
		breaker:         circuitbreaker.New[*stripe.CheckoutSession]("stripe", settings),
	}
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, sp SessionParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(sp.SuccessURL),
		CancelURL:  stripe.String(sp.CancelURL),
	}
	params.Context = ctx
	if sp.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(sp.CustomerEmail)
	}
	for _, li := range sp.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(sp.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range sp.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}
