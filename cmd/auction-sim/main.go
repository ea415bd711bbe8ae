package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cloudx-io/collateralauction/config"
	"github.com/cloudx-io/collateralauction/core"
)

// errUsage marks failures that should exit with the usage/config code.
var errUsage = errors.New("usage error")

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	root := &cobra.Command{
		Use:           "auction-sim",
		Short:         "Monte Carlo simulator for collateral position auctions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) || errors.Is(err, core.ErrInvalidParameter) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a configured Monte Carlo auction simulation",
		RunE:  runSimulation,
	}
	cmd.Flags().String("config", "", "Path to the simulation YAML config (required)")
	cmd.Flags().Int64("seed", 0, "Override the config's random seed")
	cmd.Flags().String("out", "", "Write a CBOR run snapshot to this path")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outPath, _ := cmd.Flags().GetString("out")

	if configPath == "" {
		return fmt.Errorf("%w: --config is required", errUsage)
	}

	sim, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		sim.Seed = &seed
	}

	runner, err := sim.BuildRunner()
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	log.Info().
		Int("num_simulations", sim.NumSimulations).
		Int("num_senders", sim.NumSenders).
		Str("allocation", sim.Rules.Allocation).
		Str("payment", sim.Rules.Payment).
		Msg("Starting Monte Carlo auction simulation")

	if _, err := runner.RunSimulation(); err != nil {
		log.Error().Err(err).Msg("Simulation failed")
		return fmt.Errorf("run simulation: %w", err)
	}

	mean, stdDev, err := runner.Statistics()
	if err != nil {
		return fmt.Errorf("aggregate results: %w", err)
	}

	snapshot, err := runner.Snapshot()
	if err != nil {
		return fmt.Errorf("assemble snapshot: %w", err)
	}

	log.Info().
		Str("run_id", snapshot.RunID).
		Int("trials", len(snapshot.Trials)).
		Float64("mean", mean).
		Float64("std_dev", stdDev).
		Msg("Simulation complete")

	fmt.Printf("trials: %d\nmean:   %.6f\nstd:    %.6f\n", len(snapshot.Trials), mean, stdDev)

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create snapshot file: %w", err)
		}
		defer f.Close()
		if err := snapshot.Write(f); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		log.Info().Str("path", outPath).Msg("Snapshot written")
	}

	return nil
}
