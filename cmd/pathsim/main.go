package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pathsim/internal/config"
	"pathsim/internal/logging"
	"pathsim/internal/sim"
)

var version = "0.1.0-dev"

// Exit codes.
const (
	exitError         = 1
	exitInvalidConfig = 2
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pathsim",
		Short: "Monte Carlo portfolio paths with periodic withdrawals",
		Long: `pathsim simulates a population of portfolios under geometric Brownian
motion, withdraws a share of the initial value from every path at a fixed
interval, and reports which paths went broke and where the population ended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory (holds .pathsim/)")
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newPathCmd(),
		newInitCmd(),
		newListCmd(),
		newShowCmd(),
	)
	return rootCmd
}

func exitCode(err error) int {
	if errors.Is(err, sim.ErrInvalidConfig) {
		return exitInvalidConfig
	}
	return exitError
}

// loadConfig reads --config and environment overrides, then applies
// --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	return logging.NewLogger(level, cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd, map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pathsim version %s\n", version)
			return nil
		},
	}
}
