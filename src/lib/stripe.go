package lib

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/judy2649/the-grey-pegeant/src/verifier"
	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	if apiKey == "" {
		return nil
	}
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeIntents reads and creates card payment intents.
type StripeIntents struct {
	Client *stripe.Client
}

func NewStripeIntents() *StripeIntents {
	sc := GetStripeClient()
	if sc == nil {
		return nil
	}
	return &StripeIntents{Client: sc}
}

func (s *StripeIntents) FetchIntent(ctx context.Context, id string) (*verifier.IntentStatus, error) {
	pi, err := s.Client.V1PaymentIntents.Retrieve(ctx, id, nil)
	if err != nil {
		log.Printf("[Stripe] error retrieving payment intent %s: %s\n", id, err.Error())
		return nil, err
	}
	return &verifier.IntentStatus{
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:    float64(pi.Amount) / 100,
		Currency:  strings.ToUpper(string(pi.Currency)),
	}, nil
}

type CreatedIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent opens a card payment for amount in major currency units.
func (s *StripeIntents) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*CreatedIntent, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	pi, err := s.Client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		log.Printf("[Stripe] error creating payment intent: %s\n", err.Error())
		return nil, err
	}
	return &CreatedIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
