package gbm

import (
	"math"
)

// Normal yields standard-normal draws.
type Normal interface {
	Next() float64
}

// Process is geometric Brownian motion discretized with a fixed step dt
// (in years). The update is the exact log-normal one:
//
//	s' = s * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*z)
type Process struct {
	Drift      float64
	Volatility float64
	Dt         float64

	drift     float64
	diffusion float64
}

func New(mu, sigma, dt float64) Process {
	return Process{
		Drift:      mu,
		Volatility: sigma,
		Dt:         dt,
		drift:      (mu - 0.5*math.Pow(sigma, 2)) * dt,
		diffusion:  sigma * math.Sqrt(dt),
	}
}

// Factor is the multiplier applied to a value for the draw z.
func (p Process) Factor(z float64) float64 {
	return math.Exp(p.drift + p.diffusion*z)
}

// Path returns steps values starting at s0, each derived from the previous
// one with a fresh draw from src.
func (p Process) Path(s0 float64, steps int, src Normal) []float64 {
	if steps <= 0 {
		return nil
	}
	prices := make([]float64, steps)
	prices[0] = s0

	for i := 1; i < steps; i++ {
		prices[i] = prices[i-1] * p.Factor(src.Next())
	}
	return prices
}
