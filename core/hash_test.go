package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestComputeResultHash_Deterministic(t *testing.T) {
	utilities := map[int]float64{3: -1.5, 1: 16.0, 2: 0.0}

	check.Equal(t, ComputeResultHash(utilities), ComputeResultHash(utilities))

	// Same entries built in a different insertion order hash identically.
	reordered := map[int]float64{1: 16.0, 2: 0.0, 3: -1.5}
	check.Equal(t, ComputeResultHash(utilities), ComputeResultHash(reordered))
}

func TestComputeResultHash_SensitiveToValues(t *testing.T) {
	base := map[int]float64{1: 16.0, 2: 0.0}

	changedValue := map[int]float64{1: 16.000001, 2: 0.0}
	check.NotEqual(t, ComputeResultHash(base), ComputeResultHash(changedValue))

	changedID := map[int]float64{1: 16.0, 3: 0.0}
	check.NotEqual(t, ComputeResultHash(base), ComputeResultHash(changedID))
}

func TestComputeResultHash_EmptyMap(t *testing.T) {
	check.Equal(t, ComputeResultHash(nil), ComputeResultHash(map[int]float64{}))
}
