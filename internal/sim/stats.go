package sim

import (
	"math"
)

// Summary describes a final population. StdDev is the population standard
// deviation (divisor n).
type Summary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Max    float64 `json:"max" yaml:"max"`
	Min    float64 `json:"min" yaml:"min"`
}

// Summarize is a pure function of state. An empty state gives NaN for every
// field; NaN values in state propagate to Mean and StdDev.
func Summarize(state PathState) Summary {
	if len(state) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, StdDev: nan, Max: nan, Min: nan}
	}

	m := mean(state)
	s := Summary{Mean: m, Max: state[0], Min: state[0]}

	var sq float64
	for _, v := range state {
		d := v - m
		sq += d * d
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	s.StdDev = math.Sqrt(sq / float64(len(state)))
	return s
}

// Finite reports whether every field is a finite number.
func (s Summary) Finite() bool {
	for _, v := range []float64{s.Mean, s.StdDev, s.Max, s.Min} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
