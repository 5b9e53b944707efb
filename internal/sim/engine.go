package sim

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"pathsim/internal/gbm"
	"pathsim/internal/logging"
)

// PathState holds one value per path. The index is the path's identity for
// the whole run.
type PathState []float64

// DepletionEvent marks a path found at or below zero right after a
// withdrawal. A path that stays depleted is reported at every later
// withdrawal as well.
type DepletionEvent struct {
	PathIndex int     `json:"path_index" yaml:"path_index"`
	Step      int     `json:"step" yaml:"step"`
	Year      int     `json:"year" yaml:"year"`
	Value     float64 `json:"value" yaml:"value"`
}

// Withdrawal records one withdrawal event. Ratio is not clamped: a value
// above 1 means more than the whole population mean was taken.
type Withdrawal struct {
	Step  int     `json:"step" yaml:"step"`
	Year  int     `json:"year" yaml:"year"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

type Result struct {
	Config      Config
	TotalSteps  int
	Final       PathState
	Events      []DepletionEvent
	Withdrawals []Withdrawal
	// MeanPath[i] is the population mean after step i, withdrawals included.
	MeanPath []float64
	Summary  Summary
}

// Depleted reports whether any depletion event was recorded.
func (r *Result) Depleted() bool {
	return len(r.Events) > 0
}

// maxPrealloc bounds the trajectory capacity reserved up front; longer runs
// grow MeanPath as they go.
const maxPrealloc = 1 << 16

type options struct {
	workers int
	logger  *slog.Logger
}

type Option func(*options)

// WithWorkers spreads the per-path update of each step over n goroutines.
// Results do not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger for progress records: withdrawals at debug,
// per-path depletions at trace, over-withdrawal at warn.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run simulates cfg, drawing normals from src.
//
// Every path is advanced for a step before that step's withdrawal is
// considered. Paths keep evolving after depletion. A population mean of
// exactly zero at withdrawal time makes the ratio +Inf; the values that
// follow become +Inf, -Inf or NaN depending on their sign and propagate into
// the result. With a zero withdrawal rate the ratio is always 0 and no value
// is touched.
func Run(cfg Config, src Source, opts ...Option) (*Result, error) {
	totalSteps, err := cfg.TotalSteps()
	if err != nil {
		return nil, err
	}

	o := options{workers: 1, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	state := make(PathState, cfg.PopulationSize)
	for j := range state {
		state[j] = cfg.InitialValue
	}

	proc := gbm.New(cfg.Drift, cfg.Volatility, cfg.StepSize)
	draws := make([]float64, len(state))

	res := &Result{
		Config:     cfg,
		TotalSteps: totalSteps,
		MeanPath:   make([]float64, 0, min(totalSteps, maxPrealloc)),
	}

	o.logger.Debug("simulation started",
		"paths", cfg.PopulationSize, "steps", totalSteps, "workers", o.workers)

	for i := 0; i < totalSteps; i++ {
		// Draws are taken in path order before any fan-out so the
		// (path, step) assignment never depends on scheduling.
		for j := range draws {
			draws[j] = src.Next()
		}
		if err := advance(state, draws, proc, o.workers); err != nil {
			return nil, err
		}

		if i%cfg.WithdrawalIntervalSteps == 0 && i != 0 {
			w := withdraw(state, cfg, i)
			res.Withdrawals = append(res.Withdrawals, w)
			o.logger.Debug("withdrawal", "step", w.Step, "year", w.Year, "mean", w.Mean, "ratio", w.Ratio)
			if w.Ratio > 1 {
				o.logger.Warn("withdrawal exceeds population mean", "year", w.Year, "ratio", w.Ratio)
			}

			for j, v := range state {
				if v <= 0 {
					ev := DepletionEvent{PathIndex: j, Step: i, Year: w.Year, Value: v}
					res.Events = append(res.Events, ev)
					o.logger.Log(context.Background(), logging.LevelTrace, "path depleted",
						"path", j, "year", ev.Year, "value", v)
				}
			}
		}

		res.MeanPath = append(res.MeanPath, mean(state))
	}

	res.Final = state
	res.Summary = Summarize(state)

	o.logger.Debug("simulation finished",
		"mean", res.Summary.Mean, "min", res.Summary.Min, "depletions", len(res.Events))

	return res, nil
}

func advance(state PathState, draws []float64, proc gbm.Process, workers int) error {
	if workers <= 1 || len(state) < 2*workers {
		for j := range state {
			state[j] *= proc.Factor(draws[j])
		}
		return nil
	}

	chunk := (len(state) + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < len(state); lo += chunk {
		hi := min(lo+chunk, len(state))
		g.Go(func() error {
			for j := lo; j < hi; j++ {
				state[j] *= proc.Factor(draws[j])
			}
			return nil
		})
	}
	return g.Wait()
}

func withdraw(state PathState, cfg Config, step int) Withdrawal {
	w := Withdrawal{
		Step: step,
		Year: step / cfg.WithdrawalIntervalSteps,
		Mean: mean(state),
	}
	if cfg.WithdrawalRate == 0 {
		return w
	}

	w.Ratio = cfg.WithdrawalRate * cfg.InitialValue / w.Mean
	keep := 1 - w.Ratio
	for j := range state {
		state[j] *= keep
	}
	return w
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
