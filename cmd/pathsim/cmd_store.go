package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pathsim/internal/archive"
	"pathsim/internal/codec"
	"pathsim/internal/report"
	"pathsim/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .pathsim run store in the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			st := store.New(root)
			if err := st.Init(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized run store in %s\n", st.Root)
			return nil
		},
	}
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	root, _ := cmd.Flags().GetString("root")
	st := store.New(root)
	if !st.Exists() {
		return nil, store.ErrNotInitialized
	}
	return st, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			hashes, manifests, err := archive.List(st)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				type entry struct {
					Hash     string  `json:"hash"`
					Created  string  `json:"created_at"`
					Paths    int     `json:"paths"`
					Years    float64 `json:"years"`
					Depleted bool    `json:"depleted"`
				}
				entries := make([]entry, 0, len(hashes))
				for i, h := range hashes {
					m := manifests[i]
					entries = append(entries, entry{
						Hash:     h,
						Created:  m.CreatedAt.Format(time.RFC3339),
						Paths:    m.Config.PopulationSize,
						Years:    m.Config.HorizonYears,
						Depleted: len(m.Events) > 0,
					})
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(hashes) == 0 {
				fmt.Fprintln(out, "No saved runs.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "HASH\tCREATED\tPATHS\tYEARS\tMEAN\tDEPLETED")
			for i, h := range hashes {
				m := manifests[i]
				fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%s\t%t\n",
					h[:12], m.CreatedAt.Format("2006-01-02 15:04"),
					m.Config.PopulationSize, m.Config.HorizonYears,
					report.Money(m.Summary.Mean), len(m.Events) > 0)
			}
			return tw.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run]",
		Short: "Show a saved run (default: latest)",
		Long: `Show prints a saved run. The run may be named by a ref such as
"latest", a full hash, or a unique hash prefix of at least four characters.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			name := archive.LatestRef
			if len(args) == 1 {
				name = args[0]
			}

			m, hash, err := archive.Load(st, name)
			if errors.Is(err, archive.ErrNotManifest) {
				return showPathChunk(cmd, st, name)
			}
			if err != nil {
				return err
			}
			res, err := m.Result(st)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				seed := m.Seed
				return report.JSON(cmd.OutOrStdout(), res, report.Extra{Seed: &seed, RunHash: hash})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (created %s, seed %d)\n\n", hash, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Seed)
			if err := report.Text(out, res); err != nil {
				return err
			}
			if n := len(res.MeanPath); n > 0 {
				fmt.Fprintf(out, "\nTrajectory: %d steps in %d chunks, final mean %s\n",
					n, len(m.Chunks), report.Money(res.MeanPath[n-1]))
			}
			return nil
		},
	}
}

// showPathChunk prints a single path stored by 'pathsim path --save'.
func showPathChunk(cmd *cobra.Command, st *store.Store, prefix string) error {
	hash, err := st.Resolve(prefix)
	if err != nil {
		return err
	}
	data, err := st.Get(hash)
	if err != nil {
		return err
	}
	values, err := codec.DecodeSeries(data)
	if err != nil {
		return fmt.Errorf("object %s is neither a run nor a path: %w", hash, err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return writeJSON(cmd, map[string]any{"hash": hash, "values": values})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path %s (%d values)\n", hash, len(values))
	for i, v := range values {
		fmt.Fprintf(out, "%d\t%f\n", i, v)
	}
	return nil
}
