package rules

import (
	"fmt"

	"github.com/cloudx-io/collateralauction/core"
)

// FixedPayment charges every sender the same base payment, rounded to
// monetary precision.
type FixedPayment struct {
	Base float64
}

func (r FixedPayment) Payments(a *core.Auction) (map[int]float64, error) {
	if r.Base < 0 {
		return nil, fmt.Errorf("%w: base payment must be non-negative, got %v", core.ErrInvalidParameter, r.Base)
	}
	base := RoundToPrecision(r.Base)
	payments := make(map[int]float64, len(a.Messages()))
	for _, msg := range a.Messages() {
		payments[msg.MessageID] = base
	}
	return payments, nil
}

// AllocatedPayment charges the base payment only to senders that received a
// positive allocation. Unallocated senders are omitted from the returned
// mapping and default to a payment of 0.
type AllocatedPayment struct {
	Base float64
}

func (r AllocatedPayment) Payments(a *core.Auction) (map[int]float64, error) {
	if r.Base < 0 {
		return nil, fmt.Errorf("%w: base payment must be non-negative, got %v", core.ErrInvalidParameter, r.Base)
	}
	base := RoundToPrecision(r.Base)
	payments := make(map[int]float64)
	for _, msg := range a.Messages() {
		if a.Allocations()[msg.MessageID] > 0 {
			payments[msg.MessageID] = base
		}
	}
	return payments, nil
}
