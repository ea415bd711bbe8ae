package montecarlo

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/cloudx-io/collateralauction/core"
)

// TrialSnapshot is the persisted form of one trial: the reduced scalar plus a
// deterministic hash of the full utility map, enough to compare two seeded
// runs without shipping every per-sender float.
type TrialSnapshot struct {
	Trial      int     `cbor:"trial"`
	Value      float64 `cbor:"value"`
	ResultHash string  `cbor:"result_hash"`
}

// Snapshot captures a completed Monte Carlo run for external analysis.
type Snapshot struct {
	RunID          string          `cbor:"run_id"`
	Seed           *int64          `cbor:"seed,omitempty"`
	NumSimulations int             `cbor:"num_simulations"`
	NumSenders     int             `cbor:"num_senders"`
	Mean           float64         `cbor:"mean"`
	StdDev         float64         `cbor:"std_dev"`
	Trials         []TrialSnapshot `cbor:"trials"`
}

// Snapshot assembles a snapshot of the last completed run, assigning it a
// fresh run id. It requires recorded results and a configured Reduction
// (snapshots store the reduced scalars and the aggregate statistics).
func (r *Runner) Snapshot() (*Snapshot, error) {
	mean, stdDev, err := r.Statistics()
	if err != nil {
		return nil, err
	}

	trials := make([]TrialSnapshot, len(r.results))
	for i, result := range r.results {
		trials[i] = TrialSnapshot{
			Trial:      result.Trial,
			Value:      result.Value,
			ResultHash: core.ComputeResultHash(result.Utilities),
		}
	}

	return &Snapshot{
		RunID:          uuid.NewString(),
		Seed:           r.seed,
		NumSimulations: r.numSimulations,
		NumSenders:     r.params.NumSenders,
		Mean:           mean,
		StdDev:         stdDev,
		Trials:         trials,
	}, nil
}

// Write CBOR-encodes the snapshot to w.
func (s *Snapshot) Write(w io.Writer) error {
	encoded, err := cbor.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot previously written with Write.
func ReadSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := cbor.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}
