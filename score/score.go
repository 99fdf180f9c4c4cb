// Package score ranks qualified opportunities. Five factor scores in
// [0,100] are blended into a weighted total plus a confidence estimate.
// Scoring is deterministic and side-effect free; a missing input factor
// scores 0 and missing sentiment degrades to neutral, so an AI outage can
// never block a trading decision.
package score

import (
	"math"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
)

// NeutralSentiment substitutes for an absent sentiment input.
const NeutralSentiment = 0.5

// Weights holds the relative factor weights. They need not sum to 100;
// the scorer re-normalizes. A zero weight removes the factor from the
// total (sentiment is commonly left out).
type Weights struct {
	VolumeSurge       float64 `json:"volume_surge" yaml:"volume_surge"`
	TechnicalBreakout float64 `json:"technical_breakout" yaml:"technical_breakout"`
	SectorMomentum    float64 `json:"sector_momentum" yaml:"sector_momentum"`
	NewsSentiment     float64 `json:"news_sentiment" yaml:"news_sentiment"`
	VolatilityFit     float64 `json:"volatility_fit" yaml:"volatility_fit"`
}

// DefaultWeights excludes sentiment: volume 30, breakout 30, momentum 20,
// volatility 20.
func DefaultWeights() Weights {
	return Weights{
		VolumeSurge:       30,
		TechnicalBreakout: 30,
		SectorMomentum:    20,
		VolatilityFit:     20,
	}
}

func (w Weights) sum() float64 {
	return w.VolumeSurge + w.TechnicalBreakout + w.SectorMomentum + w.NewsSentiment + w.VolatilityFit
}

// Breakdown is the scored result: each factor in [0,100], the weighted
// total, and a confidence estimate, all in [0,100].
type Breakdown struct {
	VolumeSurge       float64
	TechnicalBreakout float64
	SectorMomentum    float64
	NewsSentiment     float64
	VolatilityFit     float64
	Total             float64
	Confidence        float64
}

// Score computes the factor breakdown for one symbol. sentiment is the
// optional [0,1] external score; nil falls back to NeutralSentiment.
func Score(snap indicators.Snapshot, quote market.Quote, sentiment *float64, w Weights) Breakdown {
	s := NeutralSentiment
	if sentiment != nil {
		s = clamp(*sentiment, 0, 1)
	}

	b := Breakdown{
		VolumeSurge:       volumeSurge(snap.VolumeRatio),
		TechnicalBreakout: technicalBreakout(quote.Price, snap),
		SectorMomentum:    sectorMomentum(quote.ChangePct),
		NewsSentiment:     s * 100,
		VolatilityFit:     volatilityFit(snap.ATR14, quote.Price),
	}

	if total := w.sum(); total > 0 {
		b.Total = (b.VolumeSurge*w.VolumeSurge +
			b.TechnicalBreakout*w.TechnicalBreakout +
			b.SectorMomentum*w.SectorMomentum +
			b.NewsSentiment*w.NewsSentiment +
			b.VolatilityFit*w.VolatilityFit) / total
	}
	b.Total = clamp(b.Total, 0, 100)
	b.Confidence = confidence(b, snap.RSI14, w)

	return b
}

// volumeSurge maps the volume ratio onto [0,100] piecewise-linearly:
// 100 at 3x average and above, with knees at 2x (60) and 1.5x (30).
func volumeSurge(ratio float64) float64 {
	switch {
	case math.IsNaN(ratio) || ratio <= 0:
		return 0
	case ratio >= 3:
		return 100
	case ratio >= 2:
		return 60 + (ratio-2)*40
	case ratio >= 1.5:
		return 30 + (ratio-1.5)*60
	default:
		return ratio / 1.5 * 30
	}
}

func technicalBreakout(price float64, snap indicators.Snapshot) float64 {
	if price <= 0 {
		return 0
	}

	score := 0.0
	if snap.SMA20 > 0 && price > snap.SMA20 {
		score += 40
	}
	if snap.SMA50 > 0 && price > snap.SMA50 {
		score += 30
	}
	switch {
	case snap.RSI14 > 50 && snap.RSI14 < 70:
		score += 30
	case snap.RSI14 >= 70:
		score += 10 // overbought: momentum present but stretched
	}
	return score
}

func sectorMomentum(changePct float64) float64 {
	if math.IsNaN(changePct) {
		return 0
	}
	if changePct >= 0 {
		return clamp(50+changePct*20, 0, 100)
	}
	return clamp(50+changePct*10, 0, 100)
}

// volatilityFit prefers an ATR between 2% and 5% of price: enough range to
// trade, not enough to blow through stops.
func volatilityFit(atr, price float64) float64 {
	if price <= 0 || atr <= 0 || math.IsNaN(atr) {
		return 0
	}

	pct := atr / price * 100
	switch {
	case pct < 2:
		return pct * 50
	case pct <= 5:
		return 100
	case pct <= 8:
		return 100 - (pct-5)*20
	default:
		return math.Max(0, 40-(pct-8)*10)
	}
}

// confidence is the share of weighted factors scoring at least 60, with a
// penalty when RSI sits in an extreme zone.
func confidence(b Breakdown, rsi float64, w Weights) float64 {
	type factor struct {
		value  float64
		weight float64
	}
	factors := []factor{
		{b.VolumeSurge, w.VolumeSurge},
		{b.TechnicalBreakout, w.TechnicalBreakout},
		{b.SectorMomentum, w.SectorMomentum},
		{b.NewsSentiment, w.NewsSentiment},
		{b.VolatilityFit, w.VolatilityFit},
	}

	counted, strong := 0, 0
	for _, f := range factors {
		if f.weight <= 0 {
			continue
		}
		counted++
		if f.value >= 60 {
			strong++
		}
	}
	if counted == 0 {
		return 0
	}

	conf := float64(strong) / float64(counted) * 100
	switch {
	case rsi < 20 || rsi > 80:
		conf -= 20
	case rsi < 30 || rsi > 70:
		conf -= 10
	}
	return clamp(conf, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
