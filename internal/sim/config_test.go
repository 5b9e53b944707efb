package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_TotalSteps(t *testing.T) {
	tests := []struct {
		name    string
		horizon float64
		step    float64
		want    int
	}{
		{"daily over twenty years", 20, 1.0 / 365, 7300},
		{"daily over one year", 1, 1.0 / 365, 365},
		{"monthly", 5, 1.0 / 12, 60},
		{"single step", 1, 1, 1},
		{"half years", 3, 0.5, 6},
		{"three hundred per year", 1, 1.0 / 300, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := withdrawalScenario()
			cfg.HorizonYears = tt.horizon
			cfg.StepSize = tt.step

			got, err := cfg.TotalSteps()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-integral step count", func(c *Config) { c.HorizonYears = 1; c.StepSize = 0.003 }},
		{"step longer than horizon", func(c *Config) { c.HorizonYears = 1; c.StepSize = 3 }},
		{"zero population", func(c *Config) { c.PopulationSize = 0 }},
		{"negative population", func(c *Config) { c.PopulationSize = -4 }},
		{"zero step size", func(c *Config) { c.StepSize = 0 }},
		{"negative step size", func(c *Config) { c.StepSize = -1.0 / 365 }},
		{"zero horizon", func(c *Config) { c.HorizonYears = 0 }},
		{"negative horizon", func(c *Config) { c.HorizonYears = -1 }},
		{"zero initial value", func(c *Config) { c.InitialValue = 0 }},
		{"NaN initial value", func(c *Config) { c.InitialValue = math.NaN() }},
		{"negative volatility", func(c *Config) { c.Volatility = -0.1 }},
		{"infinite drift", func(c *Config) { c.Drift = math.Inf(1) }},
		{"withdrawal of one", func(c *Config) { c.WithdrawalRate = 1 }},
		{"negative withdrawal", func(c *Config) { c.WithdrawalRate = -0.1 }},
		{"zero interval", func(c *Config) { c.WithdrawalIntervalSteps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := withdrawalScenario()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)

			_, err = cfg.TotalSteps()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_ValidateAcceptsScenario(t *testing.T) {
	require.NoError(t, withdrawalScenario().Validate())
}

func TestConfig_WithdrawalSteps(t *testing.T) {
	cfg := withdrawalScenario()
	assert.Equal(t, 19, cfg.WithdrawalSteps())

	cfg.WithdrawalIntervalSteps = 30
	assert.Equal(t, 243, cfg.WithdrawalSteps())

	cfg.PopulationSize = 0
	assert.Zero(t, cfg.WithdrawalSteps())
}
