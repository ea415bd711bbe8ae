// Package montecarlo drives repeated collateral position auctions over
// freshly sampled sender populations and aggregates the outcomes.
package montecarlo

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cloudx-io/collateralauction/core"
)

// probabilityTolerance bounds how far a sender type distribution's mass may
// stray from 1 before construction fails.
const probabilityTolerance = 1e-9

// Params holds the construction parameters for each per-trial auction.
type Params struct {
	NumSenders         int
	SenderValueDist    core.Distribution
	RecipientValueDist core.Distribution

	Audit      core.AuditOracleFactory
	Reporting  core.ReportingRule
	Allocation core.AllocationRule
	Payment    core.PaymentRule

	// PositionEffects maps message id to the externality multiplier passed
	// into every trial's auction.
	PositionEffects map[int]float64

	// PolicyParams is an opaque pass-through for rule-specific knobs
	// (base_payment, audit_rate, ...). The runner never reads it; rules that
	// were built from it already carry their own copies.
	PolicyParams map[string]float64
}

// Reduction collapses a trial's per-sender utilities into one scalar for
// aggregation.
type Reduction func(utilities map[int]float64) float64

// TotalUtility sums the per-sender utilities of a trial.
func TotalUtility(utilities map[int]float64) float64 {
	total := 0.0
	for _, u := range utilities {
		total += u
	}
	return total
}

// MeanUtility averages the per-sender utilities of a trial; 0 for an empty
// trial.
func MeanUtility(utilities map[int]float64) float64 {
	if len(utilities) == 0 {
		return 0
	}
	return TotalUtility(utilities) / float64(len(utilities))
}

// TrialResult records the outcome of one sample-and-run cycle.
type TrialResult struct {
	Trial     int
	Utilities map[int]float64

	// Value is the reduced scalar outcome; meaningful only when the runner
	// was constructed with a Reduction.
	Value float64
}

// Runner repeatedly samples a fresh sender population, runs a new auction
// over it, and records the outcomes. Trials are executed sequentially and
// draw from a single random stream, so a fixed seed fully determines the
// result sequence.
type Runner struct {
	numSimulations   int
	typeDistribution map[string]float64
	params           Params
	reduce           Reduction

	seed    *int64
	rng     *rand.Rand
	results []TrialResult
}

// NewRunner validates the configuration and prepares the random stream.
// typeDistribution may be nil (no sender typing); when supplied its values
// must sum to 1 within probabilityTolerance. A nil seed gives a time-seeded
// stream; a fixed seed makes runs reproducible and lets Reset rewind the
// stream. Rules implementing core.RandConsumer receive the runner's stream
// so the one seed also governs reporting noise and tie-breaking.
func NewRunner(numSimulations int, typeDistribution map[string]float64, params Params, reduce Reduction, seed *int64) (*Runner, error) {
	if numSimulations < 1 {
		return nil, fmt.Errorf("%w: numSimulations must be at least 1, got %d", core.ErrInvalidParameter, numSimulations)
	}
	if params.NumSenders < 1 {
		return nil, fmt.Errorf("%w: NumSenders must be at least 1, got %d", core.ErrInvalidParameter, params.NumSenders)
	}
	if params.SenderValueDist == nil || params.RecipientValueDist == nil {
		return nil, fmt.Errorf("%w: both value distributions are required", core.ErrInvalidParameter)
	}
	if params.Audit == nil || params.Reporting == nil || params.Allocation == nil || params.Payment == nil {
		return nil, fmt.Errorf("%w: all four policy rules are required", core.ErrInvalidParameter)
	}
	if typeDistribution != nil {
		mass := 0.0
		for _, p := range typeDistribution {
			mass += p
		}
		if math.Abs(mass-1.0) > probabilityTolerance {
			return nil, fmt.Errorf("%w: sender type probabilities must sum to 1, got %v", core.ErrInvalidParameter, mass)
		}
	}

	r := &Runner{
		numSimulations:   numSimulations,
		typeDistribution: typeDistribution,
		params:           params,
		reduce:           reduce,
		seed:             seed,
	}
	if seed != nil {
		r.rng = rand.New(rand.NewSource(*seed))
	} else {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for _, rule := range []any{params.Audit, params.Reporting, params.Allocation, params.Payment} {
		if consumer, ok := rule.(core.RandConsumer); ok {
			consumer.SetRand(r.rng)
		}
	}

	return r, nil
}

// NumSimulations returns the configured trial count.
func (r *Runner) NumSimulations() int { return r.numSimulations }

// Seed returns the configured seed, nil when unseeded.
func (r *Runner) Seed() *int64 { return r.seed }

// Params returns the per-trial auction construction parameters.
func (r *Runner) Params() Params { return r.params }

// TypeDistribution returns the configured sender type distribution (may be
// nil).
func (r *Runner) TypeDistribution() map[string]float64 { return r.typeDistribution }

// Rand returns the runner's random stream. It is consumed strictly
// sequentially in trial order; callers must not interleave their own draws
// during a run.
func (r *Runner) Rand() *rand.Rand { return r.rng }

// RunSimulation executes all configured trials and returns the recorded
// results. Each trial samples a fresh population, constructs a fresh auction,
// and runs it; no state beyond the random stream is carried between trials.
// The first trial error aborts the whole run with no partial results.
func (r *Runner) RunSimulation() ([]TrialResult, error) {
	results := make([]TrialResult, 0, r.numSimulations)

	for trial := 1; trial <= r.numSimulations; trial++ {
		messages, err := core.SampleMessageSet(r.rng, r.params.NumSenders, r.params.SenderValueDist, r.params.RecipientValueDist)
		if err != nil {
			return nil, fmt.Errorf("trial %d: sample population: %w", trial, err)
		}

		auction := core.NewAuction(
			messages,
			r.params.Audit,
			r.params.Reporting,
			r.params.Allocation,
			r.params.Payment,
			r.params.PositionEffects,
		)
		if err := auction.Run(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		result := TrialResult{Trial: trial, Utilities: auction.SenderExpectedUtilities()}
		if r.reduce != nil {
			result.Value = r.reduce(result.Utilities)
		}
		results = append(results, result)
	}

	r.results = results
	return r.results, nil
}

// Results returns the results recorded by the last RunSimulation, empty
// before a run and after Reset.
func (r *Runner) Results() []TrialResult { return r.results }

// Statistics returns the mean and population standard deviation of the
// per-trial reduced scalars. It requires a Reduction at construction and at
// least one recorded trial.
func (r *Runner) Statistics() (mean, stdDev float64, err error) {
	if r.reduce == nil {
		return 0, 0, fmt.Errorf("statistics require a reduction function to collapse per-sender utilities")
	}
	if len(r.results) == 0 {
		return 0, 0, fmt.Errorf("no recorded results; run the simulation first")
	}
	values := make([]float64, len(r.results))
	for i, result := range r.results {
		values[i] = result.Value
	}
	mean, stdDev = meanStdDev(values)
	return mean, stdDev, nil
}

// Reset clears the recorded results. When a seed was supplied the random
// stream is rewound to it, so the next RunSimulation reproduces the same
// sequence of populations and outcomes.
func (r *Runner) Reset() {
	r.results = nil
	if r.seed != nil {
		// Seed on the existing Rand keeps the pointer already injected into
		// RandConsumer rules valid.
		r.rng.Seed(*r.seed)
	}
}

// meanStdDev computes the mean and population standard deviation of values.
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return mean, math.Sqrt(sumSquares / float64(len(values)))
}
