package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

type Omise struct {
	client *omise.Client
}

func NewOmise(pub, sec string, timeout time.Duration) (*Omise, error) {
	if pub == "" || sec == "" {
		return &Omise{}, nil
	}
	c, err := omise.NewClient(pub, sec)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		c.Client.Timeout = timeout
	}
	return &Omise{client: c}, nil
}

func (o *Omise) Name() string { return "omise" }

// Status retrieves a charge. The client's own timeout bounds the request; ctx
// lets the caller stop waiting earlier.
func (o *Omise) Status(ctx context.Context, chargeID string) (*Status, error) {
	if o.client == nil {
		return nil, ErrNotConfigured
	}
	ch := &omise.Charge{}
	done := make(chan error, 1)
	go func() {
		done <- o.client.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID})
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("omise retrieve charge: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("omise retrieve charge: %w", err)
		}
	}
	return &Status{
		Completed: ch.Status == omise.ChargeSuccessful,
		Amount:    float64(ch.Amount) / 100,
		Currency:  ch.Currency,
		Reference: ch.ID,
		Raw:       string(ch.Status),
	}, nil
}
