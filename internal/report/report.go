// Package report renders simulation results for terminals and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"pathsim/internal/sim"
)

// Money formats v to two decimals. Non-finite values are spelled out since
// decimal cannot represent them.
func Money(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Ratio formats a withdrawal ratio as a percentage.
func Ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money(v)
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// Text writes a human-readable report.
func Text(w io.Writer, res *sim.Result) error {
	s := res.Summary
	cfg := res.Config

	fmt.Fprintf(w, "Simulated %d paths over %d steps (%g years)\n",
		cfg.PopulationSize, res.TotalSteps, cfg.HorizonYears)
	fmt.Fprintf(w, "  Mean:    %s\n", Money(s.Mean))
	fmt.Fprintf(w, "  Std dev: %s\n", Money(s.StdDev))
	fmt.Fprintf(w, "  Max:     %s\n", Money(s.Max))
	fmt.Fprintf(w, "  Min:     %s\n", Money(s.Min))

	if len(res.Withdrawals) > 0 && cfg.WithdrawalRate > 0 {
		fmt.Fprintf(w, "\nWithdrawals (%s of initial value every %d steps):\n",
			Ratio(cfg.WithdrawalRate), cfg.WithdrawalIntervalSteps)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  YEAR\tSTEP\tMEAN\tRATIO")
		for _, wd := range res.Withdrawals {
			fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\n", wd.Year, wd.Step, Money(wd.Mean), Ratio(wd.Ratio))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(res.Events) == 0 {
		_, err := fmt.Fprintln(w, "\nNo path depleted.")
		return err
	}

	first := res.Events[0]
	fmt.Fprintf(w, "\nDepletion: %d events across %d paths, first in year %d (path %d)\n",
		len(res.Events), depletedPaths(res.Events), first.Year, first.PathIndex)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  YEAR\tSTEP\tPATH\tVALUE")
	for _, ev := range res.Events {
		fmt.Fprintf(tw, "  %d\t%d\t%d\t%s\n", ev.Year, ev.Step, ev.PathIndex, Money(ev.Value))
	}
	return tw.Flush()
}

type jsonFloat float64

// MarshalJSON writes non-finite values as strings; encoding/json rejects
// them otherwise.
func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(Money(v))
	}
	return json.Marshal(v)
}

type jsonSummary struct {
	Mean   jsonFloat `json:"mean"`
	StdDev jsonFloat `json:"std_dev"`
	Max    jsonFloat `json:"max"`
	Min    jsonFloat `json:"min"`
}

type jsonWithdrawal struct {
	Step  int       `json:"step"`
	Year  int       `json:"year"`
	Mean  jsonFloat `json:"mean"`
	Ratio jsonFloat `json:"ratio"`
}

type jsonEvent struct {
	PathIndex int       `json:"path_index"`
	Step      int       `json:"step"`
	Year      int       `json:"year"`
	Value     jsonFloat `json:"value"`
}

type jsonReport struct {
	Config      sim.Config       `json:"config"`
	TotalSteps  int              `json:"total_steps"`
	Summary     jsonSummary      `json:"summary"`
	Withdrawals []jsonWithdrawal `json:"withdrawals"`
	Events      []jsonEvent      `json:"events"`
	Depleted    bool             `json:"depleted"`
	Seed        *uint64          `json:"seed,omitempty"`
	RunHash     string           `json:"run_hash,omitempty"`
}

// Extra carries run metadata that is not part of sim.Result.
type Extra struct {
	Seed    *uint64
	RunHash string
}

// JSON writes res as a single JSON document.
func JSON(w io.Writer, res *sim.Result, extra Extra) error {
	out := jsonReport{
		Config:     res.Config,
		TotalSteps: res.TotalSteps,
		Summary: jsonSummary{
			Mean:   jsonFloat(res.Summary.Mean),
			StdDev: jsonFloat(res.Summary.StdDev),
			Max:    jsonFloat(res.Summary.Max),
			Min:    jsonFloat(res.Summary.Min),
		},
		Withdrawals: make([]jsonWithdrawal, 0, len(res.Withdrawals)),
		Events:      make([]jsonEvent, 0, len(res.Events)),
		Depleted:    res.Depleted(),
		Seed:        extra.Seed,
		RunHash:     extra.RunHash,
	}
	for _, wd := range res.Withdrawals {
		out.Withdrawals = append(out.Withdrawals, jsonWithdrawal{
			Step: wd.Step, Year: wd.Year, Mean: jsonFloat(wd.Mean), Ratio: jsonFloat(wd.Ratio),
		})
	}
	for _, ev := range res.Events {
		out.Events = append(out.Events, jsonEvent{
			PathIndex: ev.PathIndex, Step: ev.Step, Year: ev.Year, Value: jsonFloat(ev.Value),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func depletedPaths(events []sim.DepletionEvent) int {
	seen := make(map[int]struct{})
	for _, ev := range events {
		seen[ev.PathIndex] = struct{}{}
	}
	return len(seen)
}
