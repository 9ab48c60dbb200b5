package verifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/judy2649/the-grey-pegeant/src/lib/mpesa"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
)

type TransactionQuerier interface {
	QueryTransactionStatus(ctx context.Context, reference, conversationID string) (*mpesa.Response, error)
}

// ManualCodeVerifier checks a typed receipt code. The provider lookup only
// blocks confirmation in production.
type ManualCodeVerifier struct {
	Provider   TransactionQuerier
	Production bool
}

func (m *ManualCodeVerifier) Channel() types.Channel { return types.MANUAL_CODE }

func (m *ManualCodeVerifier) Strict() bool { return m.Production }

func (m *ManualCodeVerifier) Verify(ctx context.Context, claim types.PaymentClaim) (*Result, error) {
	if !utils.IsClaimCode(claim.ClaimKey) {
		return nil, types.NewError(types.KindInvalidClaim, "Transaction code must be 10 letters or digits", nil)
	}
	if m.Provider == nil {
		return nil, fmt.Errorf("no transaction status provider configured")
	}
	res, err := m.Provider.QueryTransactionStatus(ctx, claim.ClaimKey, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Result{
		Confirmed:        res.OK(),
		ProviderAmount:   res.Amount,
		ProviderCurrency: "KES",
		Reference:        res.TransactionID,
		Raw:              res.Raw,
		Note:             res.Description,
	}, nil
}
