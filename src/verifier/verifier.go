package verifier

import (
	"context"
	"fmt"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

// Result is what a provider said about a claim.
type Result struct {
	Confirmed        bool
	ProviderAmount   float64
	ProviderCurrency string
	Reference        string
	Raw              string
	Note             string
}

// Verifier confirms a claim with the authority for its channel. Strict verifiers
// turn a failed or errored check into a rejection; lenient ones only log it.
type Verifier interface {
	Channel() types.Channel
	Strict() bool
	Verify(ctx context.Context, claim types.PaymentClaim) (*Result, error)
}

type Registry map[types.Channel]Verifier

func NewRegistry(vs ...Verifier) Registry {
	r := Registry{}
	for _, v := range vs {
		r[v.Channel()] = v
	}
	return r
}

func (r Registry) For(ch types.Channel) (Verifier, error) {
	v, ok := r[ch]
	if !ok {
		return nil, types.NewError(types.KindInvalidClaim, fmt.Sprintf("Unsupported payment channel %q", ch), nil)
	}
	return v, nil
}
