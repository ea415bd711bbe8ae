// Package rules provides concrete policy-rule implementations for the
// collateral position auction core: allocation, payment, audit-liability,
// and reporting rules that cover the standard simulation setups.
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/collateralauction/core"
)

const monetaryPrecision int32 = 4 // 4 decimal places for reported-value comparisons (0.0001 precision)

// MeetsThreshold returns true if the reported value meets or exceeds the
// participation threshold. Uses decimal arithmetic with monetaryPrecision to
// avoid floating-point errors.
func MeetsThreshold(value, threshold float64) bool {
	valueDecimal := decimal.NewFromFloat(value).Round(monetaryPrecision)
	thresholdDecimal := decimal.NewFromFloat(threshold).Round(monetaryPrecision)

	return valueDecimal.GreaterThanOrEqual(thresholdDecimal)
}

// ScreenParticipants filters a population based on a participation threshold
// applied to one reported attribute. Returns the eligible senders and the ids
// of screened-out senders. A sender with no report, or whose report lacks the
// attribute, is compared at value 0.
func ScreenParticipants(messages []core.SenderMessage, reports map[int]core.Report, attribute string, threshold float64) (eligible []core.SenderMessage, screenedIDs []int) {
	eligibleMessages := make([]core.SenderMessage, 0, len(messages))
	screened := make([]int, 0)

	for _, msg := range messages {
		if MeetsThreshold(reports[msg.MessageID][attribute], threshold) {
			eligibleMessages = append(eligibleMessages, msg)
		} else {
			screened = append(screened, msg.MessageID)
		}
	}

	return eligibleMessages, screened
}

// RoundToPrecision rounds a monetary amount to monetaryPrecision using
// decimal arithmetic for a precise result.
func RoundToPrecision(amount float64) float64 {
	rounded, _ := decimal.NewFromFloat(amount).Round(monetaryPrecision).Float64()
	return rounded
}
