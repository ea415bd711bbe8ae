package rules

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/cloudx-io/collateralauction/core"
)

// RandSource provides random number generation for tie-breaking.
// This interface enables dependency injection for deterministic testing;
// *rand.Rand satisfies it.
type RandSource interface {
	// Intn returns a random integer in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// AllocateAll allocates the same quantity to every sender in the population.
type AllocateAll struct {
	Quantity int
}

func (r AllocateAll) Allocate(a *core.Auction) (map[int]int, error) {
	allocations := make(map[int]int, len(a.Messages()))
	for _, msg := range a.Messages() {
		allocations[msg.MessageID] = r.Quantity
	}
	return allocations, nil
}

// TopK allocates one position to each of the K senders with the highest
// reported value, after screening out senders whose report fails the
// participation threshold. Ties at the same reported value are broken
// randomly so equal reports have equal chances at a position.
type TopK struct {
	K         int
	Threshold float64 // participation threshold on the ranked attribute; 0 admits everyone
	Attribute string  // report attribute ranked on; defaults to ReportedValueKey

	rand RandSource
}

// SetRand injects the shared seeded stream used for tie-breaking.
func (r *TopK) SetRand(rng *rand.Rand) { r.rand = rng }

func (r *TopK) Allocate(a *core.Auction) (map[int]int, error) {
	if r.K < 0 {
		return nil, fmt.Errorf("%w: top-k allocation requires k >= 0, got %d", core.ErrInvalidParameter, r.K)
	}
	attribute := r.Attribute
	if attribute == "" {
		attribute = ReportedValueKey
	}

	eligible, _ := ScreenParticipants(a.Messages(), a.Reports(), attribute, r.Threshold)

	type rankEntry struct {
		id    int
		value float64
	}
	entries := make([]rankEntry, 0, len(eligible))
	for _, msg := range eligible {
		entries = append(entries, rankEntry{id: msg.MessageID, value: a.Reports()[msg.MessageID][attribute]})
	}

	// Sort by reported value descending; population order is preserved for
	// equal values until the tie shuffle below.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value > entries[j].value
	})

	randSource := r.rand
	if randSource == nil {
		randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// Break ties randomly: shuffle groups of entries with the same reported
	// value using Fisher-Yates.
	i := 0
	for i < len(entries) {
		value := entries[i].value
		j := i + 1
		for j < len(entries) && entries[j].value == value {
			j++
		}

		if j-i > 1 {
			for k := j - 1; k > i; k-- {
				randIdx := i + randSource.Intn(k-i+1)
				entries[k], entries[randIdx] = entries[randIdx], entries[k]
			}
		}

		i = j
	}

	allocations := make(map[int]int, len(a.Messages()))
	for _, msg := range a.Messages() {
		allocations[msg.MessageID] = 0
	}
	for rank, entry := range entries {
		if rank >= r.K {
			break
		}
		allocations[entry.id] = 1
	}
	return allocations, nil
}
