package qualify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
)

// qualSeries builds a 230-bar series that satisfies every rule: a long
// gentle uptrend, a run-up to a closing high of 107, an orderly pullback
// to a low of 98, and a confirmed bounce back to 101.
func qualSeries() market.Series {
	closes := make([]float64, 230)
	for i := 0; i < 200; i++ {
		closes[i] = 90 + 0.05*float64(i)
	}
	for i := 200; i <= 215; i++ {
		closes[i] = 100 + 7.0/15.0*float64(i-200)
	}
	for i := 216; i <= 223; i++ {
		closes[i] = 107 - float64(i-215)
	}
	for i := 224; i <= 229; i++ {
		closes[i] = 99 + 2.0/6.0*float64(i-223)
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make(market.Series, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = market.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1e6,
		}
	}
	bars[223].Low = 98 // pullback low
	return bars
}

func snapFor(t *testing.T, bars market.Series) indicators.Snapshot {
	t.Helper()
	snap, err := indicators.Compute(bars, indicators.Config{})
	require.NoError(t, err)
	return snap
}

func TestEvaluatePasses(t *testing.T) {
	t.Parallel()

	bars := qualSeries()
	res := Evaluate(bars, snapFor(t, bars), DefaultConfig())

	assert.True(t, res.Passed, "failed rules: %v", res.FailedRules)
	assert.Empty(t, res.FailedRules)
	assert.InDelta(t, 107.0, res.RecentHigh, 1e-9)
	assert.InDelta(t, 98.0, res.PullbackLow, 1e-9)
	assert.InDelta(t, (107.0-101.0)/107.0, res.PullbackPct, 1e-9)
	assert.InDelta(t, 98.0*0.993, res.StopPrice, 1e-9)
	assert.Equal(t, 0, res.SharpDropDays)
}

func TestPullbackBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pullback float64
		wantFail bool
	}{
		{"exactly 5pct", 0.0500, false},
		{"just under 5pct", 0.0499, true},
		{"exactly 8pct", 0.0800, false},
		{"just over 8pct", 0.0801, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bars := qualSeries()
			last := len(bars) - 1
			bars[last].Close = 107.0 * (1 - tt.pullback)
			bars[last].High = bars[last].Close + 0.5

			res := Evaluate(bars, snapFor(t, bars), DefaultConfig())
			assert.Equal(t, tt.wantFail, res.Failed(RulePullbackDepth))
		})
	}
}

func TestDataSufficiency(t *testing.T) {
	t.Parallel()

	bars := qualSeries()[:220]
	// The snapshot is still computable at 220 bars; only the rule count fails.
	res := Evaluate(bars, snapFor(t, bars), DefaultConfig())

	assert.False(t, res.Passed)
	assert.True(t, res.Failed(RuleDataSufficiency))
	// Diagnostics are still populated after a failure.
	assert.Greater(t, res.RecentHigh, 0.0)
}

func TestTrendFailure(t *testing.T) {
	t.Parallel()

	bars := qualSeries()
	snap := snapFor(t, bars)
	snap.SMA200Slope = -0.5

	res := Evaluate(bars, snap, DefaultConfig())
	assert.False(t, res.Passed)
	assert.Equal(t, []RuleID{RuleTrend}, res.FailedRules)
}

func TestRegimeFailure(t *testing.T) {
	t.Parallel()

	bars := qualSeries()
	snap := snapFor(t, bars)
	snap.SMA200 = 120 // close 101 is below the long SMA

	res := Evaluate(bars, snap, DefaultConfig())
	assert.True(t, res.Failed(RuleRegime))
	// Negative extension is not an extension failure.
	assert.False(t, res.Failed(RuleExtension))
}

func TestBounceFailure(t *testing.T) {
	t.Parallel()

	bars := qualSeries()
	last := len(bars) - 1
	// 99.5 is still a valid pullback depth but below 98*1.02 = 99.96.
	bars[last].Close = 99.5
	bars[last].High = 100

	res := Evaluate(bars, snapFor(t, bars), DefaultConfig())
	assert.True(t, res.Failed(RuleBounce))
	assert.False(t, res.Failed(RulePullbackDepth))
}

func TestSharpDropFilter(t *testing.T) {
	t.Parallel()

	bars := qualSeries()
	for _, i := range []int{175, 180, 185} {
		bars[i].Close = bars[i-1].Close * 0.959
		bars[i].Low = bars[i].Close - 0.5
	}

	res := Evaluate(bars, snapFor(t, bars), DefaultConfig())
	assert.True(t, res.Failed(RuleSharpDrop))
	assert.Equal(t, 3, res.SharpDropDays)
}

func TestMultipleFailuresReported(t *testing.T) {
	t.Parallel()

	bars := qualSeries()[:220]
	snap := snapFor(t, bars)
	snap.SMA200Slope = -1

	res := Evaluate(bars, snap, DefaultConfig())
	assert.True(t, res.Failed(RuleDataSufficiency))
	assert.True(t, res.Failed(RuleTrend))
	assert.GreaterOrEqual(t, len(res.FailedRules), 2)
}

func TestEmptySeriesDoesNotPanic(t *testing.T) {
	t.Parallel()

	res := Evaluate(market.Series{}, indicators.Snapshot{}, DefaultConfig())
	assert.False(t, res.Passed)
	assert.True(t, res.Failed(RuleDataSufficiency))
}
