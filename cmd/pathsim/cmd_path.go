package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"pathsim/internal/codec"
	"pathsim/internal/gbm"
	"pathsim/internal/sim"
	"pathsim/internal/store"
)

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Generate a single GBM path without withdrawals",
		Long: `Path generates one geometric Brownian motion trajectory and prints
it step by step. With --save the trajectory is stored as a checksummed
XOR chunk and its hash printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			steps, _ := f.GetInt("steps")
			s0, _ := f.GetFloat64("initial")
			mu, _ := f.GetFloat64("drift")
			sigma, _ := f.GetFloat64("volatility")
			dt, _ := f.GetFloat64("step-size")
			seed, _ := f.GetUint64("seed")
			save, _ := f.GetBool("save")

			if steps <= 0 || !(s0 > 0) || !(dt > 0) || sigma < 0 {
				return fmt.Errorf("%w: need steps > 0, initial > 0, step-size > 0, volatility >= 0", sim.ErrInvalidConfig)
			}
			if seed == 0 {
				seed = rand.Uint64()
			}

			proc := gbm.New(mu, sigma, dt)
			values := proc.Path(s0, steps, sim.NewSeededSource(seed))

			out := cmd.OutOrStdout()
			if save {
				root, _ := cmd.Flags().GetString("root")
				st := store.New(root)
				if !st.Exists() {
					if err := st.Init(); err != nil {
						return err
					}
				}
				data, err := codec.EncodeSeries(values)
				if err != nil {
					return err
				}
				hash, err := st.Put(data)
				if err != nil {
					return fmt.Errorf("error saving path: %w", err)
				}
				fmt.Fprintf(out, "Successfully committed path: %s\n", hash)
				return nil
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"seed":       seed,
					"drift":      proc.Drift,
					"volatility": proc.Volatility,
					"step_size":  proc.Dt,
					"values":     values,
				})
			}
			for i, v := range values {
				fmt.Fprintf(out, "%d\t%f\n", i, v)
			}
			return nil
		},
	}

	cmd.Flags().Int("steps", 365, "Number of values to generate, including the start")
	cmd.Flags().Float64("initial", 100, "Starting value")
	cmd.Flags().Float64("drift", 0.1, "Annualized drift")
	cmd.Flags().Float64("volatility", 0.2, "Annualized volatility")
	cmd.Flags().Float64("step-size", 1.0/365, "Step length as a fraction of a year")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	cmd.Flags().Bool("save", false, "Store the path as a chunk under .pathsim/")

	return cmd
}
