package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"pathsim/internal/archive"
	"pathsim/internal/config"
	"pathsim/internal/report"
	"pathsim/internal/sim"
	"pathsim/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a withdrawal simulation and print its summary",
		Long: `Run advances every path through the configured horizon, withdraws
from all paths at each interval, and prints summary statistics together
with any depletion events. Flags override the config file and PATHSIM_*
environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Logging.Level)

			seed := cfg.Run.Seed
			if seed == 0 {
				seed = rand.Uint64()
			}
			logger.Info("running simulation",
				"paths", cfg.Simulation.PopulationSize,
				"years", cfg.Simulation.HorizonYears,
				"withdrawals", cfg.Simulation.WithdrawalSteps(),
				"seed", seed)

			res, err := sim.Run(cfg.Simulation, sim.NewSeededSource(seed),
				sim.WithWorkers(cfg.Run.Workers), sim.WithLogger(logger))
			if err != nil {
				return err
			}
			if !res.Summary.Finite() {
				logger.Warn("final population has non-finite values", "mean", res.Summary.Mean)
			}

			var runHash string
			if cfg.Run.Save {
				root, _ := cmd.Flags().GetString("root")
				st := store.New(root)
				if !st.Exists() {
					if err := st.Init(); err != nil {
						return err
					}
				}
				runHash, err = archive.Save(st, res, seed, time.Now())
				if err != nil {
					return fmt.Errorf("save run: %w", err)
				}
				logger.Info("run saved", "hash", runHash)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return report.JSON(cmd.OutOrStdout(), res, report.Extra{Seed: &seed, RunHash: runHash})
			}

			out := cmd.OutOrStdout()
			if err := report.Text(out, res); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSeed: %d\n", seed)
			if runHash != "" {
				fmt.Fprintf(out, "Saved as %s\n", runHash)
			}
			return nil
		},
	}

	cmd.Flags().Int("population", 0, "Number of simulated paths")
	cmd.Flags().Float64("initial", 0, "Starting value of every path")
	cmd.Flags().Float64("years", 0, "Simulated horizon in years")
	cmd.Flags().Float64("step-size", 0, "Step length as a fraction of a year")
	cmd.Flags().Int("steps-per-year", 0, "Steps per year (sets --step-size to 1/n)")
	cmd.Flags().Float64("drift", 0, "Annualized drift")
	cmd.Flags().Float64("volatility", 0, "Annualized volatility")
	cmd.Flags().Float64("withdrawal", 0, "Share of the initial value withdrawn per event, in [0,1)")
	cmd.Flags().Int("interval", 0, "Steps between withdrawals")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	cmd.Flags().Int("workers", 0, "Goroutines stepping paths in parallel")
	cmd.Flags().Bool("save", false, "Store the run under .pathsim/")
	cmd.MarkFlagsMutuallyExclusive("step-size", "steps-per-year")

	return cmd
}

// applyRunFlags copies explicitly set flags over cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	s := &cfg.Simulation

	ints := map[string]*int{
		"population": &s.PopulationSize,
		"interval":   &s.WithdrawalIntervalSteps,
		"workers":    &cfg.Run.Workers,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			v, err := f.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	floats := map[string]*float64{
		"initial":    &s.InitialValue,
		"years":      &s.HorizonYears,
		"step-size":  &s.StepSize,
		"drift":      &s.Drift,
		"volatility": &s.Volatility,
		"withdrawal": &s.WithdrawalRate,
	}
	for name, dst := range floats {
		if f.Changed(name) {
			v, err := f.GetFloat64(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if f.Changed("steps-per-year") {
		n, err := f.GetInt("steps-per-year")
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%w: steps per year must be positive, got %d", sim.ErrInvalidConfig, n)
		}
		s.StepSize = 1 / float64(n)
	}
	if f.Changed("seed") {
		cfg.Run.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("save") {
		cfg.Run.Save, _ = f.GetBool("save")
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
