package verifier

import (
	"context"
	"log"

	"github.com/judy2649/the-grey-pegeant/src/store"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

// PushVerifier matches a push callback to the pending transaction it answers.
// The provider already confirmed the payment by calling us, so a miss is only logged.
type PushVerifier struct {
	Pending store.PendingStore
}

func (p *PushVerifier) Channel() types.Channel { return types.PUSH_PAYMENT }

func (p *PushVerifier) Strict() bool { return false }

func (p *PushVerifier) Verify(ctx context.Context, claim types.PaymentClaim) (*Result, error) {
	res := &Result{Confirmed: true, ProviderAmount: claim.Amount, Reference: claim.Reference}
	if claim.Reference == "" {
		log.Printf("[Verifier] push callback for %s carries no conversation id\n", claim.ClaimKey)
		res.Note = "orphan"
		return res, nil
	}
	pending, err := p.Pending.FindPending(ctx, claim.Reference)
	if err != nil {
		log.Printf("[Verifier] pending lookup failed for %s: %s\n", claim.Reference, err.Error())
		res.Note = "orphan"
		return res, nil
	}
	if pending == nil {
		log.Printf("[Verifier] WARNING orphan push callback: no pending transaction %s\n", claim.Reference)
		res.Note = "orphan"
		return res, nil
	}
	if pending.Status != types.PENDING_OPEN {
		log.Printf("[Verifier] pending transaction %s is %s, accepting provider callback\n", claim.Reference, pending.Status)
	}
	res.ProviderAmount = pending.Amount
	return res, nil
}
