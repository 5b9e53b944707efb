package sim

import (
	"math/rand/v2"
)

// Source yields independent standard-normal draws. Run consumes one draw
// per path per step, in path order.
type Source interface {
	Next() float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() float64

func (f SourceFunc) Next() float64 { return f() }

type seededSource struct {
	r *rand.Rand
}

// NewSeededSource returns a PCG-backed normal source. Two sources built from
// the same seed produce the same sequence.
func NewSeededSource(seed uint64) Source {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Next() float64 {
	return s.r.NormFloat64()
}

type sequenceSource struct {
	values []float64
	pos    int
}

// NewSequenceSource replays values in order, wrapping around at the end.
// An empty sequence always yields 0.
func NewSequenceSource(values []float64) Source {
	cp := make([]float64, len(values))
	copy(cp, values)
	return &sequenceSource{values: cp}
}

func (s *sequenceSource) Next() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos]
	s.pos = (s.pos + 1) % len(s.values)
	return v
}
