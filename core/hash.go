package core

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeResultHash computes a deterministic hash of a per-sender utility map.
// Snapshots store it so two runs of the same seed can be compared without
// comparing every float.
//
// Formula: SHA256("id:utility|id:utility|...") with ids sorted ascending and
// utilities formatted to exactly 6 decimal places, so the hash is stable
// regardless of map iteration order or in-memory float representation.
func ComputeResultHash(utilities map[int]float64) string {
	ids := make([]int, 0, len(utilities))
	for id := range utilities {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	data := ""
	for i, id := range ids {
		if i > 0 {
			data += "|"
		}
		data += fmt.Sprintf("%d:%.6f", id, utilities[id])
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
