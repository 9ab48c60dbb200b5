package engine

import (
	"context"

	"github.com/judy2649/the-grey-pegeant/src/store"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

// CapacityGuard reports how many seats are held against the global cap.
// Only PAID, CONFIRMED and VERIFIED bookings hold a seat; PENDING ones do not.
type CapacityGuard struct {
	Store    store.PaymentRecordStore
	Capacity int64
}

func (c *CapacityGuard) Taken(ctx context.Context) (int64, error) {
	return c.Store.CountByStatus(ctx, types.CapacityStatuses...)
}

func (c *CapacityGuard) Remaining(ctx context.Context) (int64, error) {
	n, err := c.Taken(ctx)
	if err != nil {
		return 0, err
	}
	if n >= c.Capacity {
		return 0, nil
	}
	return c.Capacity - n, nil
}

// Check fails with CapacityExceeded once the cap is reached.
func (c *CapacityGuard) Check(ctx context.Context) error {
	left, err := c.Remaining(ctx)
	if err != nil {
		return err
	}
	if left == 0 {
		return types.ErrCapacityExceeded
	}
	return nil
}
