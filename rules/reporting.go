package rules

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cloudx-io/collateralauction/core"
)

// Report attribute keys produced by the rules in this package.
const (
	ReportedValueKey  = "reported_value"
	RecipientValueKey = "recipient_value"
)

// NoisyReports reports each sender's value with multiplicative normal noise:
// reported_value = senderValue * (1 + ε), ε ~ N(0, Noise). The recipient
// value is reported verbatim.
type NoisyReports struct {
	Noise float64

	rand *rand.Rand
}

// SetRand injects the shared seeded stream used for the noise draws.
func (r *NoisyReports) SetRand(rng *rand.Rand) { r.rand = rng }

func (r *NoisyReports) Reports(a *core.Auction) (map[int]core.Report, error) {
	if r.Noise < 0 {
		return nil, fmt.Errorf("%w: reporting noise must be non-negative, got %v", core.ErrInvalidParameter, r.Noise)
	}
	rng := r.rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	reports := make(map[int]core.Report, len(a.Messages()))
	for _, msg := range a.Messages() {
		reports[msg.MessageID] = core.Report{
			ReportedValueKey:  msg.SenderValue * (1 + rng.NormFloat64()*r.Noise),
			RecipientValueKey: msg.RecipientValue,
		}
	}
	return reports, nil
}

// TruthfulReports reports each sender's values exactly as drawn.
type TruthfulReports struct{}

func (TruthfulReports) Reports(a *core.Auction) (map[int]core.Report, error) {
	reports := make(map[int]core.Report, len(a.Messages()))
	for _, msg := range a.Messages() {
		reports[msg.MessageID] = core.Report{
			ReportedValueKey:  msg.SenderValue,
			RecipientValueKey: msg.RecipientValue,
		}
	}
	return reports, nil
}
