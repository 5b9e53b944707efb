package report

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathsim/internal/sim"
)

func depletedResult() *sim.Result {
	return &sim.Result{
		Config: sim.Config{
			PopulationSize:          2,
			InitialValue:            100,
			HorizonYears:            3,
			StepSize:                1,
			WithdrawalRate:          0.9,
			WithdrawalIntervalSteps: 1,
		},
		TotalSteps: 3,
		Final:      sim.PathState{-80, -80},
		Withdrawals: []sim.Withdrawal{
			{Step: 1, Year: 1, Mean: 100, Ratio: 0.9},
			{Step: 2, Year: 2, Mean: 10, Ratio: 9},
		},
		Events: []sim.DepletionEvent{
			{PathIndex: 0, Step: 2, Year: 2, Value: -80},
			{PathIndex: 1, Step: 2, Year: 2, Value: -80},
		},
		Summary: sim.Summary{Mean: -80, StdDev: 0, Max: -80, Min: -80},
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100.00"},
		{1234.567, "1234.57"},
		{-80.00000000000001, "-80.00"},
		{0, "0.00"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(tt.in))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "15.00%", Ratio(0.15))
	assert.Equal(t, "900.00%", Ratio(9))
	assert.Equal(t, "+Inf", Ratio(math.Inf(1)))
}

func TestText_Depleted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, depletedResult()))

	out := buf.String()
	assert.Contains(t, out, "Simulated 2 paths over 3 steps")
	assert.Contains(t, out, "Min:     -80.00")
	assert.Contains(t, out, "900.00%")
	assert.Contains(t, out, "Depletion: 2 events across 2 paths, first in year 2 (path 0)")
}

func TestText_NoDepletion(t *testing.T) {
	res := depletedResult()
	res.Events = nil

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, res))
	assert.Contains(t, buf.String(), "No path depleted.")
}

func TestJSON(t *testing.T) {
	res := depletedResult()
	res.Withdrawals = append(res.Withdrawals, sim.Withdrawal{Step: 3, Year: 3, Mean: 0, Ratio: math.Inf(1)})
	res.Summary.StdDev = math.NaN()
	seed := uint64(9)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, res, Extra{Seed: &seed, RunHash: "abc"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, true, got["depleted"])
	assert.Equal(t, float64(9), got["seed"])
	assert.Equal(t, "abc", got["run_hash"])

	summary := got["summary"].(map[string]any)
	assert.Equal(t, -80.0, summary["mean"])
	assert.Equal(t, "NaN", summary["std_dev"])

	withdrawals := got["withdrawals"].([]any)
	require.Len(t, withdrawals, 3)
	assert.Equal(t, "+Inf", withdrawals[2].(map[string]any)["ratio"])

	events := got["events"].([]any)
	assert.Len(t, events, 2)
}
