// Package config loads pathsim run settings from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pathsim/internal/sim"
)

// Config contains all pathsim settings.
type Config struct {
	// Simulation holds the model parameters handed to the engine.
	Simulation sim.Config `json:"simulation" yaml:"simulation"`

	// Run contains settings that affect how a simulation executes but not
	// what it computes.
	Run RunConfig `json:"run" yaml:"run"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

type RunConfig struct {
	// Seed for the normal source. 0 picks a random seed per run.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Workers is the number of goroutines stepping paths in parallel.
	Workers int `json:"workers" yaml:"workers"`

	// Save stores the finished run in the project's .pathsim directory.
	Save bool `json:"save" yaml:"save"`
}

type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`
}

// Default returns the annual-withdrawal scenario: ten paths of 100 over
// twenty years of daily steps, 10% drift, 30% volatility and 15% of the
// initial value withdrawn each year.
func Default() *Config {
	return &Config{
		Simulation: sim.Config{
			PopulationSize:          10,
			InitialValue:            100,
			HorizonYears:            20,
			StepSize:                1.0 / 365,
			Drift:                   0.1,
			Volatility:              0.3,
			WithdrawalRate:          0.15,
			WithdrawalIntervalSteps: 365,
		},
		Run: RunConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a config from defaults, then path (if non-empty), then
// PATHSIM_* environment variables.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields the
// file omits keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks the simulation parameters and the run settings. Every
// failure wraps sim.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	if c.Run.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", sim.ErrInvalidConfig, c.Run.Workers)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid log level: %s (valid: info, debug, trace, or empty for default)",
			sim.ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable values are reported rather than ignored.
func applyEnvOverrides(config *Config) error {
	s := &config.Simulation

	ints := []struct {
		env string
		dst *int
	}{
		{"PATHSIM_POPULATION", &s.PopulationSize},
		{"PATHSIM_WITHDRAWAL_INTERVAL", &s.WithdrawalIntervalSteps},
		{"PATHSIM_WORKERS", &config.Run.Workers},
	}
	for _, o := range ints {
		if v := os.Getenv(o.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", o.env, err)
			}
			*o.dst = n
		}
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"PATHSIM_INITIAL_VALUE", &s.InitialValue},
		{"PATHSIM_HORIZON_YEARS", &s.HorizonYears},
		{"PATHSIM_STEP_SIZE", &s.StepSize},
		{"PATHSIM_DRIFT", &s.Drift},
		{"PATHSIM_VOLATILITY", &s.Volatility},
		{"PATHSIM_WITHDRAWAL_RATE", &s.WithdrawalRate},
	}
	for _, o := range floats {
		if v := os.Getenv(o.env); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", o.env, err)
			}
			*o.dst = f
		}
	}

	if v := os.Getenv("PATHSIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PATHSIM_SEED: %w", err)
		}
		config.Run.Seed = seed
	}

	if v := os.Getenv("PATHSIM_SAVE"); v != "" {
		save, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PATHSIM_SAVE: %w", err)
		}
		config.Run.Save = save
	}

	if v := os.Getenv("PATHSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	return nil
}
