// Package qualify implements the buy-qualification rule set: eight pass/fail
// checks applied to a daily bar series and its indicator snapshot. A failed
// rule is a normal negative result, never an error.
package qualify

import (
	"math"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
)

// RuleID identifies one qualification rule.
type RuleID string

const (
	RuleDataSufficiency RuleID = "data_sufficiency"
	RuleTrend           RuleID = "trend"
	RuleExtension       RuleID = "extension"
	RulePullbackDepth   RuleID = "pullback_depth"
	RuleBounce          RuleID = "bounce_confirmation"
	RuleRegime          RuleID = "regime"
	RuleSharpDrop       RuleID = "sharp_drop"
	RuleStopDistance    RuleID = "stop_distance"
)

// Config holds the rule thresholds. Percentages are fractions (0.05 = 5%).
type Config struct {
	MinBars         int     `json:"min_bars" yaml:"min_bars"`
	HighLookback    int     `json:"high_lookback" yaml:"high_lookback"`
	MaxExtensionPct float64 `json:"max_extension_pct" yaml:"max_extension_pct"`
	MinPullbackPct  float64 `json:"min_pullback_pct" yaml:"min_pullback_pct"`
	MaxPullbackPct  float64 `json:"max_pullback_pct" yaml:"max_pullback_pct"`
	BounceRatio     float64 `json:"bounce_ratio" yaml:"bounce_ratio"`
	SharpDropPct    float64 `json:"sharp_drop_pct" yaml:"sharp_drop_pct"`
	MaxSharpDrops   int     `json:"max_sharp_drops" yaml:"max_sharp_drops"`
	StopBuffer      float64 `json:"stop_buffer" yaml:"stop_buffer"`
	MinStopDistPct  float64 `json:"min_stop_dist_pct" yaml:"min_stop_dist_pct"`
	MaxStopDistPct  float64 `json:"max_stop_dist_pct" yaml:"max_stop_dist_pct"`
}

// DefaultConfig returns the standard pullback rule thresholds.
func DefaultConfig() Config {
	return Config{
		MinBars:         221,
		HighLookback:    63,
		MaxExtensionPct: 0.20,
		MinPullbackPct:  0.05,
		MaxPullbackPct:  0.08,
		BounceRatio:     1.02,
		SharpDropPct:    -0.03,
		MaxSharpDrops:   3,
		StopBuffer:      0.007,
		MinStopDistPct:  0.02,
		MaxStopDistPct:  0.06,
	}
}

// Result is the verdict for one (symbol, date) evaluation. All diagnostic
// metrics are populated even when rules fail, so FailedRules can carry more
// than one entry.
type Result struct {
	Passed      bool
	FailedRules []RuleID

	RecentHigh    float64
	PullbackLow   float64
	PullbackPct   float64
	ExtensionPct  float64
	SharpDropDays int
	StopPrice     float64
	StopDistPct   float64
}

// Failed reports whether a specific rule failed.
func (r Result) Failed(id RuleID) bool {
	for _, f := range r.FailedRules {
		if f == id {
			return true
		}
	}
	return false
}

// Evaluate applies all eight rules to the series tail. Any undefined or
// non-finite intermediate hard-fails its rule rather than escaping as a
// panic or error.
func Evaluate(bars market.Series, snap indicators.Snapshot, cfg Config) Result {
	res := Result{Passed: true}
	fail := func(id RuleID) {
		res.Passed = false
		res.FailedRules = append(res.FailedRules, id)
	}

	// Data sufficiency
	if len(bars) < cfg.MinBars {
		fail(RuleDataSufficiency)
	}
	if len(bars) == 0 {
		return res
	}

	last := bars.Last()
	closePx := last.Close

	// Trend: long SMA rising over the slope window
	if !(snap.SMA200Slope > 0) {
		fail(RuleTrend)
	}

	// Extension above the long SMA
	if snap.SMA200 > 0 {
		res.ExtensionPct = (closePx - snap.SMA200) / snap.SMA200
	}
	if !(snap.SMA200 > 0) || math.IsNaN(res.ExtensionPct) || res.ExtensionPct >= cfg.MaxExtensionPct {
		fail(RuleExtension)
	}

	// Pullback depth from the recent closing high
	highIdx := recentHighIndex(bars, cfg.HighLookback)
	if highIdx >= 0 {
		res.RecentHigh = bars[highIdx].Close
	}
	if res.RecentHigh > 0 {
		res.PullbackPct = (res.RecentHigh - closePx) / res.RecentHigh
	}
	if highIdx < 0 || math.IsNaN(res.PullbackPct) ||
		res.PullbackPct < cfg.MinPullbackPct || res.PullbackPct > cfg.MaxPullbackPct {
		fail(RulePullbackDepth)
	}

	// Bounce off the pullback low
	if highIdx >= 0 {
		res.PullbackLow = lowestLow(bars[highIdx:])
	}
	if !(res.PullbackLow > 0) || closePx < res.PullbackLow*cfg.BounceRatio {
		fail(RuleBounce)
	}

	// Regime: close above the long SMA
	if !(closePx > snap.SMA200) {
		fail(RuleRegime)
	}

	// Sharp single-day drops inside the lookback window
	res.SharpDropDays = sharpDrops(bars, cfg.HighLookback, cfg.SharpDropPct)
	if res.SharpDropDays >= cfg.MaxSharpDrops {
		fail(RuleSharpDrop)
	}

	// Stop distance from the buffered pullback low
	if res.PullbackLow > 0 {
		res.StopPrice = res.PullbackLow * (1 - cfg.StopBuffer)
		res.StopDistPct = (closePx - res.StopPrice) / closePx
	}
	if !(res.StopPrice > 0) || math.IsNaN(res.StopDistPct) ||
		res.StopDistPct < cfg.MinStopDistPct || res.StopDistPct > cfg.MaxStopDistPct {
		fail(RuleStopDistance)
	}

	return res
}

// recentHighIndex returns the index of the highest close within the trailing
// lookback window, preferring the most recent bar on ties. Returns -1 for an
// empty window.
func recentHighIndex(bars market.Series, lookback int) int {
	start := len(bars) - lookback
	if start < 0 {
		start = 0
	}
	idx := -1
	high := math.Inf(-1)
	for i := start; i < len(bars); i++ {
		if bars[i].Close >= high {
			high = bars[i].Close
			idx = i
		}
	}
	return idx
}

func lowestLow(bars market.Series) float64 {
	if len(bars) == 0 {
		return 0
	}
	low := math.Inf(1)
	for _, b := range bars {
		if b.Low < low {
			low = b.Low
		}
	}
	return low
}

// sharpDrops counts bars in the trailing window whose close fell more than
// the threshold from the prior close (threshold is negative).
func sharpDrops(bars market.Series, lookback int, threshold float64) int {
	start := len(bars) - lookback
	if start < 1 {
		start = 1
	}
	count := 0
	for i := start; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}
		if (bars[i].Close-prev)/prev < threshold {
			count++
		}
	}
	return count
}
