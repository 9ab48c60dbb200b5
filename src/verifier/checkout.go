package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/judy2649/the-grey-pegeant/src/lib/checkout"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

// CheckoutVerifier always asks the checkout provider; there is no manual fallback.
type CheckoutVerifier struct {
	Providers       map[string]checkout.Provider
	DefaultProvider string
}

func NewCheckoutVerifier(defaultProvider string, ps ...checkout.Provider) *CheckoutVerifier {
	m := map[string]checkout.Provider{}
	for _, p := range ps {
		m[p.Name()] = p
	}
	return &CheckoutVerifier{Providers: m, DefaultProvider: defaultProvider}
}

func (c *CheckoutVerifier) Channel() types.Channel { return types.THIRD_PARTY_CHECKOUT }

func (c *CheckoutVerifier) Strict() bool { return true }

func (c *CheckoutVerifier) Verify(ctx context.Context, claim types.PaymentClaim) (*Result, error) {
	name := strings.ToLower(claim.Provider)
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown checkout provider %q", name)
	}
	st, err := p.Status(ctx, providerID(claim))
	if err != nil {
		return nil, err
	}
	res := &Result{
		Confirmed:        st.Completed,
		ProviderAmount:   st.Amount,
		ProviderCurrency: st.Currency,
		Reference:        st.Reference,
		Raw:              st.Raw,
	}
	if st.Completed && st.Amount > 0 && st.Amount < claim.Amount {
		res.Confirmed = false
		res.Note = "provider amount below claimed amount"
	}
	if st.Completed && st.Currency != "" && claim.Currency != "" && !strings.EqualFold(st.Currency, claim.Currency) {
		res.Confirmed = false
		res.Note = "currency mismatch"
	}
	return res, nil
}
