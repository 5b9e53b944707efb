package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededSource_Repeatable(t *testing.T) {
	a := NewSeededSource(99)
	b := NewSeededSource(99)
	c := NewSeededSource(100)

	same := true
	for i := 0; i < 100; i++ {
		x, y, z := a.Next(), b.Next(), c.Next()
		assert.Equal(t, x, y)
		if x != z {
			same = false
		}
	}
	assert.False(t, same, "different seeds produced identical streams")
}

func TestSeededSource_Moments(t *testing.T) {
	src := NewSeededSource(5)
	const n = 200000

	var sum, sq float64
	for i := 0; i < n; i++ {
		z := src.Next()
		sum += z
		sq += z * z
	}
	m := sum / n
	v := sq/n - m*m

	assert.InDelta(t, 0, m, 0.02)
	assert.InDelta(t, 1, math.Sqrt(v), 0.02)
}

func TestSequenceSource(t *testing.T) {
	vals := []float64{1, -1, 0.5}
	src := NewSequenceSource(vals)
	vals[0] = 42

	got := make([]float64, 5)
	for i := range got {
		got[i] = src.Next()
	}
	assert.Equal(t, []float64{1, -1, 0.5, 1, -1}, got)

	assert.Zero(t, NewSequenceSource(nil).Next())
}

func BenchmarkSeededSource(b *testing.B) {
	src := NewSeededSource(1)
	for i := 0; i < b.N; i++ {
		_ = src.Next()
	}
}

func BenchmarkRun(b *testing.B) {
	cfg := Config{
		PopulationSize:          1000,
		InitialValue:            100,
		HorizonYears:            1,
		StepSize:                1.0 / 365,
		Drift:                   0.1,
		Volatility:              0.2,
		WithdrawalRate:          0.04,
		WithdrawalIntervalSteps: 365,
	}
	for i := 0; i < b.N; i++ {
		if _, err := Run(cfg, NewSeededSource(uint64(i))); err != nil {
			b.Fatal(err)
		}
	}
}
