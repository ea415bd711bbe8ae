package rules

import (
	"fmt"
	"sort"

	"github.com/cloudx-io/collateralauction/core"
)

// RateAudit builds an oracle charging a flat fraction of each sender's
// private value as expected audit liability.
type RateAudit struct {
	Rate float64
}

func (r RateAudit) BuildOracle(a *core.Auction) (core.LiabilityOracle, error) {
	if r.Rate < 0 {
		return nil, fmt.Errorf("%w: audit rate must be non-negative, got %v", core.ErrInvalidParameter, r.Rate)
	}
	rate := r.Rate
	return func(msg core.SenderMessage) float64 {
		return rate * msg.SenderValue
	}, nil
}

// AuditStep is one slice of a stepped liability schedule: senders whose
// recipient value falls at or below UpTo are charged Charge.
type AuditStep struct {
	UpTo   float64
	Charge float64
}

// SteppedAudit builds a piecewise-constant liability oracle over recipient
// value. Steps are evaluated in ascending UpTo order; recipient values above
// the last bound are charged the last step's Charge. An empty schedule
// charges nothing.
type SteppedAudit struct {
	Steps []AuditStep
}

func (r SteppedAudit) BuildOracle(a *core.Auction) (core.LiabilityOracle, error) {
	for _, step := range r.Steps {
		if step.Charge < 0 {
			return nil, fmt.Errorf("%w: stepped audit charges must be non-negative, got %v", core.ErrInvalidParameter, step.Charge)
		}
	}
	steps := make([]AuditStep, len(r.Steps))
	copy(steps, r.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].UpTo < steps[j].UpTo })

	return func(msg core.SenderMessage) float64 {
		if len(steps) == 0 {
			return 0
		}
		for _, step := range steps {
			if msg.RecipientValue <= step.UpTo {
				return step.Charge
			}
		}
		return steps[len(steps)-1].Charge
	}, nil
}
