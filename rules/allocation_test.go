package rules

import (
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/collateralauction/core"
)

// mockRandSource provides a deterministic random source for testing
type mockRandSource struct {
	sequence []int
	index    int
}

func (m *mockRandSource) Intn(n int) int {
	if m.index >= len(m.sequence) {
		return 0
	}
	val := m.sequence[m.index] % n
	m.index++
	return val
}

// runWithAllocation executes a truthful-report auction over the given
// population using the allocation rule under test.
func runWithAllocation(t *testing.T, messages []core.SenderMessage, allocation core.AllocationRule) *core.Auction {
	t.Helper()
	auction := core.NewAuction(
		messages,
		RateAudit{Rate: 0},
		TruthfulReports{},
		allocation,
		FixedPayment{Base: 0},
		nil,
	)
	check.Nil(t, auction.Run())
	return auction
}

func TestAllocateAll(t *testing.T) {
	messages := []core.SenderMessage{
		{MessageID: 1, SenderValue: 1.0},
		{MessageID: 2, SenderValue: 2.0},
		{MessageID: 3, SenderValue: 3.0},
	}

	auction := runWithAllocation(t, messages, AllocateAll{Quantity: 1})

	check.Equal(t, 3, len(auction.Allocations()))
	for _, msg := range messages {
		check.Equal(t, 1, auction.Allocations()[msg.MessageID])
	}
}

func TestTopK_AllocatesHighestReportedValues(t *testing.T) {
	messages := []core.SenderMessage{
		{MessageID: 1, SenderValue: 2.50},
		{MessageID: 2, SenderValue: 2.25},
		{MessageID: 3, SenderValue: 2.75},
	}

	auction := runWithAllocation(t, messages, &TopK{K: 2})

	check.Equal(t, map[int]int{1: 1, 2: 0, 3: 1}, auction.Allocations())
}

func TestTopK_KLargerThanPopulation(t *testing.T) {
	messages := []core.SenderMessage{
		{MessageID: 1, SenderValue: 1.0},
		{MessageID: 2, SenderValue: 2.0},
	}

	auction := runWithAllocation(t, messages, &TopK{K: 10})

	check.Equal(t, map[int]int{1: 1, 2: 1}, auction.Allocations())
}

func TestTopK_ZeroK(t *testing.T) {
	messages := []core.SenderMessage{{MessageID: 1, SenderValue: 1.0}}

	auction := runWithAllocation(t, messages, &TopK{K: 0})

	check.Equal(t, map[int]int{1: 0}, auction.Allocations())
}

func TestTopK_ParticipationThresholdScreens(t *testing.T) {
	messages := []core.SenderMessage{
		{MessageID: 1, SenderValue: 0.5},
		{MessageID: 2, SenderValue: 2.0},
		{MessageID: 3, SenderValue: 1.0},
	}

	// Sender 1 falls below the threshold, so even with K=3 it gets nothing.
	auction := runWithAllocation(t, messages, &TopK{K: 3, Threshold: 1.0})

	check.Equal(t, map[int]int{1: 0, 2: 1, 3: 1}, auction.Allocations())
}

func TestTopK_TwoWayTie(t *testing.T) {
	messages := []core.SenderMessage{
		{MessageID: 1, SenderValue: 2.50},
		{MessageID: 2, SenderValue: 2.50},
		{MessageID: 3, SenderValue: 1.00},
	}

	rule1 := &TopK{K: 1}
	rule1.rand = &mockRandSource{sequence: []int{0}}
	auction1 := runWithAllocation(t, messages, rule1)
	check.Equal(t, map[int]int{1: 0, 2: 1, 3: 0}, auction1.Allocations()) // Swapped to first

	rule2 := &TopK{K: 1}
	rule2.rand = &mockRandSource{sequence: []int{1}}
	auction2 := runWithAllocation(t, messages, rule2)
	check.Equal(t, map[int]int{1: 1, 2: 0, 3: 0}, auction2.Allocations()) // Stayed first
}

func TestTopK_NegativeK(t *testing.T) {
	messages := []core.SenderMessage{{MessageID: 1, SenderValue: 1.0}}
	auction := core.NewAuction(messages, RateAudit{}, TruthfulReports{}, &TopK{K: -1}, FixedPayment{}, nil)

	check.NotNil(t, auction.Run())
}
