package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudx-io/collateralauction/core"
)

const validYAML = `
num_simulations: 100
seed: 42
num_senders: 5
sender_value_dist:
  kind: uniform
  min: 1.0
  max: 10.0
recipient_value_dist:
  kind: normal
  mean: 5.0
  std_dev: 2.0
sender_type_distribution:
  honest: 0.7
  strategic: 0.3
default_position_effect: 1.5
rules:
  allocation: top_k
  top_k: 2
  participation_threshold: 1.0
  payment: allocated
  base_payment: 0.5
  audit_rate: 0.1
  reporting_noise: 0.05
reduction: mean
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	sim, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 100, sim.NumSimulations)
	require.NotNil(t, sim.Seed)
	assert.Equal(t, int64(42), *sim.Seed)
	assert.Equal(t, 5, sim.NumSenders)
	assert.Equal(t, DistUniform, sim.SenderValueDist.Kind)
	assert.Equal(t, DistNormal, sim.RecipientValueDist.Kind)
	assert.Equal(t, 0.7, sim.SenderTypeDistribution["honest"])
	assert.Equal(t, AllocationTopK, sim.Rules.Allocation)
	assert.Equal(t, 2, sim.Rules.TopK)
	assert.Equal(t, ReductionMean, sim.Reduction)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "num_simulations: [not a scalar"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Simulation {
		return &Simulation{
			NumSimulations:     10,
			NumSenders:         3,
			SenderValueDist:    DistributionSpec{Kind: DistUniform, Min: 0, Max: 1},
			RecipientValueDist: DistributionSpec{Kind: DistUniform, Min: 0, Max: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Simulation)
	}{
		{"zero simulations", func(s *Simulation) { s.NumSimulations = 0 }},
		{"zero senders", func(s *Simulation) { s.NumSenders = 0 }},
		{"unknown distribution kind", func(s *Simulation) { s.SenderValueDist.Kind = "poisson" }},
		{"uniform with max below min", func(s *Simulation) { s.SenderValueDist = DistributionSpec{Kind: DistUniform, Min: 2, Max: 1} }},
		{"normal with zero std dev", func(s *Simulation) { s.RecipientValueDist = DistributionSpec{Kind: DistNormal, Mean: 0, StdDev: 0} }},
		{"unknown allocation rule", func(s *Simulation) { s.Rules.Allocation = "lottery" }},
		{"unknown payment rule", func(s *Simulation) { s.Rules.Payment = "tithe" }},
		{"unknown reduction", func(s *Simulation) { s.Reduction = "median" }},
		{"negative audit rate", func(s *Simulation) { s.Rules.AuditRate = -0.1 }},
		{"negative reporting noise", func(s *Simulation) { s.Rules.ReportingNoise = -0.1 }},
		{"negative base payment", func(s *Simulation) { s.Rules.BasePayment = -1 }},
		{"top_k allocation without k", func(s *Simulation) { s.Rules.Allocation = AllocationTopK }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := base()
			tt.mutate(sim)
			err := sim.Validate()
			assert.ErrorIs(t, err, core.ErrInvalidParameter)
		})
	}

	assert.NoError(t, base().Validate())
}

func TestPositionEffectMap(t *testing.T) {
	t.Run("explicit map wins", func(t *testing.T) {
		sim := &Simulation{NumSenders: 3, PositionEffects: map[int]float64{1: 2.0}}
		assert.Equal(t, map[int]float64{1: 2.0}, sim.PositionEffectMap())
	})

	t.Run("default effect applied to every sender", func(t *testing.T) {
		effect := 1.5
		sim := &Simulation{NumSenders: 2, DefaultPositionEffect: &effect}
		assert.Equal(t, map[int]float64{1: 1.5, 2: 1.5}, sim.PositionEffectMap())
	})

	t.Run("unset default is one", func(t *testing.T) {
		sim := &Simulation{NumSenders: 2}
		assert.Equal(t, map[int]float64{1: 1.0, 2: 1.0}, sim.PositionEffectMap())
	})
}

func TestBuildRunner(t *testing.T) {
	sim, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	runner, err := sim.BuildRunner()
	require.NoError(t, err)

	assert.Equal(t, 100, runner.NumSimulations())
	require.NotNil(t, runner.Seed())
	assert.Equal(t, int64(42), *runner.Seed())
	assert.Equal(t, 5, runner.Params().NumSenders)
	assert.Equal(t, 0.5, runner.Params().PolicyParams["base_payment"])

	results, err := runner.RunSimulation()
	require.NoError(t, err)
	assert.Len(t, results, 100)

	_, _, err = runner.Statistics()
	assert.NoError(t, err)
}

func TestBuildRunner_InvalidTypeDistribution(t *testing.T) {
	sim, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	// Construction-time distribution validation happens in the runner.
	sim.SenderTypeDistribution = map[string]float64{"a": 0.4, "b": 0.5}
	_, err = sim.BuildRunner()
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}
