// Package sim runs a population of geometric Brownian motion paths with
// periodic proportional withdrawals and summarizes where they end up.
package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure. Match it with
// errors.Is.
var ErrInvalidConfig = errors.New("invalid simulation config")

// stepTolerance bounds how far HorizonYears/StepSize may sit from an integer.
const stepTolerance = 1e-9

// Config describes one simulation run. It is not modified by Run.
type Config struct {
	PopulationSize          int     `json:"population_size" yaml:"population_size"`
	InitialValue            float64 `json:"initial_value" yaml:"initial_value"`
	HorizonYears            float64 `json:"horizon_years" yaml:"horizon_years"`
	StepSize                float64 `json:"step_size" yaml:"step_size"`
	Drift                   float64 `json:"drift" yaml:"drift"`
	Volatility              float64 `json:"volatility" yaml:"volatility"`
	WithdrawalRate          float64 `json:"withdrawal_rate" yaml:"withdrawal_rate"`
	WithdrawalIntervalSteps int     `json:"withdrawal_interval_steps" yaml:"withdrawal_interval_steps"`
}

// TotalSteps validates c and returns round(HorizonYears / StepSize).
func (c Config) TotalSteps() (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return c.totalSteps(), nil
}

func (c Config) totalSteps() int {
	return int(math.Round(c.HorizonYears / c.StepSize))
}

// Validate reports the first constraint c violates.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, c.PopulationSize)
	case !(c.InitialValue > 0) || math.IsInf(c.InitialValue, 0):
		return fmt.Errorf("%w: initial value must be positive and finite, got %v", ErrInvalidConfig, c.InitialValue)
	case !(c.HorizonYears > 0) || math.IsInf(c.HorizonYears, 0):
		return fmt.Errorf("%w: horizon must be positive and finite, got %v", ErrInvalidConfig, c.HorizonYears)
	case !(c.StepSize > 0) || math.IsInf(c.StepSize, 0):
		return fmt.Errorf("%w: step size must be positive and finite, got %v", ErrInvalidConfig, c.StepSize)
	case math.IsNaN(c.Drift) || math.IsInf(c.Drift, 0):
		return fmt.Errorf("%w: drift must be finite, got %v", ErrInvalidConfig, c.Drift)
	case !(c.Volatility >= 0) || math.IsInf(c.Volatility, 0):
		return fmt.Errorf("%w: volatility must be non-negative and finite, got %v", ErrInvalidConfig, c.Volatility)
	case !(c.WithdrawalRate >= 0 && c.WithdrawalRate < 1):
		return fmt.Errorf("%w: withdrawal rate must be in [0,1), got %v", ErrInvalidConfig, c.WithdrawalRate)
	case c.WithdrawalIntervalSteps <= 0:
		return fmt.Errorf("%w: withdrawal interval must be positive, got %d", ErrInvalidConfig, c.WithdrawalIntervalSteps)
	}

	ratio := c.HorizonYears / c.StepSize
	steps := math.Round(ratio)
	if steps < 1 {
		return fmt.Errorf("%w: horizon %v is shorter than one step of %v", ErrInvalidConfig, c.HorizonYears, c.StepSize)
	}
	if math.Abs(ratio-steps) > stepTolerance*math.Max(1, steps) {
		return fmt.Errorf("%w: step size %v does not divide horizon %v into whole steps (%.6f)",
			ErrInvalidConfig, c.StepSize, c.HorizonYears, ratio)
	}
	if steps > math.MaxInt32 {
		return fmt.Errorf("%w: step count %.0f too large", ErrInvalidConfig, steps)
	}
	return nil
}

// WithdrawalSteps returns how many withdrawal events a run of c performs.
func (c Config) WithdrawalSteps() int {
	if c.Validate() != nil {
		return 0
	}
	return (c.totalSteps() - 1) / c.WithdrawalIntervalSteps
}
