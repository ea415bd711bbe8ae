// Package config loads and validates simulation configuration files and
// builds the runtime objects (distributions, policy rules, runner) they
// describe.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/collateralauction/core"
	"github.com/cloudx-io/collateralauction/montecarlo"
	"github.com/cloudx-io/collateralauction/rules"
)

// Distribution kinds accepted by DistributionSpec.
const (
	DistUniform = "uniform"
	DistNormal  = "normal"
)

// Allocation rule names accepted by RulesSpec.
const (
	AllocationAll  = "all"
	AllocationTopK = "top_k"
)

// Payment rule names accepted by RulesSpec.
const (
	PaymentFixed     = "fixed"
	PaymentAllocated = "allocated"
)

// Reduction names accepted by Simulation.
const (
	ReductionTotal = "total"
	ReductionMean  = "mean"
)

// DistributionSpec describes one continuous value distribution.
type DistributionSpec struct {
	Kind   string  `yaml:"kind"`
	Min    float64 `yaml:"min"`     // uniform
	Max    float64 `yaml:"max"`     // uniform
	Mean   float64 `yaml:"mean"`    // normal
	StdDev float64 `yaml:"std_dev"` // normal
}

// RulesSpec selects the policy rules for a run along with their parameters.
// The parameters are opaque to the Monte Carlo core; they only have meaning
// for the rule they configure.
type RulesSpec struct {
	Allocation             string  `yaml:"allocation"`
	TopK                   int     `yaml:"top_k"`
	ParticipationThreshold float64 `yaml:"participation_threshold"`

	Payment     string  `yaml:"payment"`
	BasePayment float64 `yaml:"base_payment"`

	AuditRate      float64 `yaml:"audit_rate"`
	ReportingNoise float64 `yaml:"reporting_noise"`
}

// Simulation is the full configuration for one Monte Carlo run. It replaces
// the historical process-wide parameter store with an explicit immutable
// value.
type Simulation struct {
	NumSimulations int    `yaml:"num_simulations"`
	Seed           *int64 `yaml:"seed"`

	NumSenders         int              `yaml:"num_senders"`
	SenderValueDist    DistributionSpec `yaml:"sender_value_dist"`
	RecipientValueDist DistributionSpec `yaml:"recipient_value_dist"`

	SenderTypeDistribution map[string]float64 `yaml:"sender_type_distribution"`

	// PositionEffects maps message id to externality multiplier. When empty,
	// DefaultPositionEffect (1.0 if unset) is applied to every sender.
	PositionEffects       map[int]float64 `yaml:"position_effects"`
	DefaultPositionEffect *float64        `yaml:"default_position_effect"`

	Rules     RulesSpec `yaml:"rules"`
	Reduction string    `yaml:"reduction"`
}

// Load reads and validates a simulation configuration from a YAML file.
func Load(path string) (*Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	var sim Simulation
	if err := yaml.Unmarshal(data, &sim); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	if err := sim.Validate(); err != nil {
		return nil, err
	}
	return &sim, nil
}

// Validate checks the scalar ranges the auction core will reject anyway, so
// a bad file fails here with a path to the offending field instead of at run
// construction.
func (s *Simulation) Validate() error {
	if s.NumSimulations < 1 {
		return fmt.Errorf("%w: num_simulations must be at least 1, got %d", core.ErrInvalidParameter, s.NumSimulations)
	}
	if s.NumSenders < 1 {
		return fmt.Errorf("%w: num_senders must be at least 1, got %d", core.ErrInvalidParameter, s.NumSenders)
	}
	if err := s.SenderValueDist.validate("sender_value_dist"); err != nil {
		return err
	}
	if err := s.RecipientValueDist.validate("recipient_value_dist"); err != nil {
		return err
	}

	switch s.Rules.Allocation {
	case AllocationAll, AllocationTopK, "":
	default:
		return fmt.Errorf("%w: unknown allocation rule %q", core.ErrInvalidParameter, s.Rules.Allocation)
	}
	switch s.Rules.Payment {
	case PaymentFixed, PaymentAllocated, "":
	default:
		return fmt.Errorf("%w: unknown payment rule %q", core.ErrInvalidParameter, s.Rules.Payment)
	}
	switch s.Reduction {
	case ReductionTotal, ReductionMean, "":
	default:
		return fmt.Errorf("%w: unknown reduction %q", core.ErrInvalidParameter, s.Reduction)
	}
	if s.Rules.AuditRate < 0 {
		return fmt.Errorf("%w: audit_rate must be non-negative, got %v", core.ErrInvalidParameter, s.Rules.AuditRate)
	}
	if s.Rules.ReportingNoise < 0 {
		return fmt.Errorf("%w: reporting_noise must be non-negative, got %v", core.ErrInvalidParameter, s.Rules.ReportingNoise)
	}
	if s.Rules.BasePayment < 0 {
		return fmt.Errorf("%w: base_payment must be non-negative, got %v", core.ErrInvalidParameter, s.Rules.BasePayment)
	}
	if s.Rules.Allocation == AllocationTopK && s.Rules.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1 for top_k allocation, got %d", core.ErrInvalidParameter, s.Rules.TopK)
	}
	return nil
}

func (d DistributionSpec) validate(field string) error {
	switch d.Kind {
	case DistUniform:
		if d.Max <= d.Min {
			return fmt.Errorf("%w: %s: max must exceed min, got [%v, %v]", core.ErrInvalidParameter, field, d.Min, d.Max)
		}
	case DistNormal:
		if d.StdDev <= 0 {
			return fmt.Errorf("%w: %s: std_dev must be positive, got %v", core.ErrInvalidParameter, field, d.StdDev)
		}
	default:
		return fmt.Errorf("%w: %s: unknown distribution kind %q", core.ErrInvalidParameter, field, d.Kind)
	}
	return nil
}

// Build constructs the sampler distribution this entry describes.
func (d DistributionSpec) Build() (core.Distribution, error) {
	switch d.Kind {
	case DistUniform:
		return core.Uniform{Min: d.Min, Max: d.Max}, nil
	case DistNormal:
		return core.Normal{Mean: d.Mean, StdDev: d.StdDev}, nil
	default:
		return nil, fmt.Errorf("%w: unknown distribution kind %q", core.ErrInvalidParameter, d.Kind)
	}
}

// PositionEffectMap resolves the per-sender position effects: the explicit
// map when given, otherwise the default effect applied to every sender id.
func (s *Simulation) PositionEffectMap() map[int]float64 {
	if len(s.PositionEffects) > 0 {
		return s.PositionEffects
	}
	effect := 1.0
	if s.DefaultPositionEffect != nil {
		effect = *s.DefaultPositionEffect
	}
	effects := make(map[int]float64, s.NumSenders)
	for id := 1; id <= s.NumSenders; id++ {
		effects[id] = effect
	}
	return effects
}

// BuildRunner assembles the fully wired Monte Carlo runner for this
// configuration.
func (s *Simulation) BuildRunner() (*montecarlo.Runner, error) {
	senderDist, err := s.SenderValueDist.Build()
	if err != nil {
		return nil, fmt.Errorf("sender_value_dist: %w", err)
	}
	recipientDist, err := s.RecipientValueDist.Build()
	if err != nil {
		return nil, fmt.Errorf("recipient_value_dist: %w", err)
	}

	var allocation core.AllocationRule
	switch s.Rules.Allocation {
	case AllocationTopK:
		allocation = &rules.TopK{K: s.Rules.TopK, Threshold: s.Rules.ParticipationThreshold}
	default:
		allocation = rules.AllocateAll{Quantity: 1}
	}

	var payment core.PaymentRule
	switch s.Rules.Payment {
	case PaymentAllocated:
		payment = rules.AllocatedPayment{Base: s.Rules.BasePayment}
	default:
		payment = rules.FixedPayment{Base: s.Rules.BasePayment}
	}

	var reporting core.ReportingRule
	if s.Rules.ReportingNoise > 0 {
		reporting = &rules.NoisyReports{Noise: s.Rules.ReportingNoise}
	} else {
		reporting = rules.TruthfulReports{}
	}

	var reduce montecarlo.Reduction
	switch s.Reduction {
	case ReductionMean:
		reduce = montecarlo.MeanUtility
	default:
		reduce = montecarlo.TotalUtility
	}

	params := montecarlo.Params{
		NumSenders:         s.NumSenders,
		SenderValueDist:    senderDist,
		RecipientValueDist: recipientDist,
		Audit:              rules.RateAudit{Rate: s.Rules.AuditRate},
		Reporting:          reporting,
		Allocation:         allocation,
		Payment:            payment,
		PositionEffects:    s.PositionEffectMap(),
		PolicyParams: map[string]float64{
			"base_payment":            s.Rules.BasePayment,
			"audit_rate":              s.Rules.AuditRate,
			"reporting_noise":         s.Rules.ReportingNoise,
			"participation_threshold": s.Rules.ParticipationThreshold,
		},
	}

	return montecarlo.NewRunner(s.NumSimulations, s.SenderTypeDistribution, params, reduce, s.Seed)
}
