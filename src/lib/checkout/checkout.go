package checkout

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("checkout provider is not configured")

// Status is the provider's authoritative view of a checkout.
type Status struct {
	Completed bool
	Amount    float64
	Currency  string
	Reference string
	Raw       string
}

type Provider interface {
	Name() string
	Status(ctx context.Context, trackingID string) (*Status, error)
}
