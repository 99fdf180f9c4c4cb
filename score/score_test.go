package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
)

func TestVolumeSurgeCurve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ratio float64
		want  float64
	}{
		{"zero", 0, 0},
		{"below threshold", 0.75, 15},
		{"at 1.5x", 1.5, 30},
		{"at 2x", 2.0, 60},
		{"midway 2-3x", 2.5, 80},
		{"at 3x", 3.0, 100},
		{"above 3x", 5.0, 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, volumeSurge(tt.ratio), 1e-9)
		})
	}
}

func TestTechnicalBreakout(t *testing.T) {
	t.Parallel()

	snap := indicators.Snapshot{SMA20: 98, SMA50: 95, RSI14: 60}
	assert.InDelta(t, 100.0, technicalBreakout(100, snap), 1e-9)

	snap.RSI14 = 75
	assert.InDelta(t, 80.0, technicalBreakout(100, snap), 1e-9)

	snap.RSI14 = 45
	assert.InDelta(t, 70.0, technicalBreakout(100, snap), 1e-9)

	// Below both averages with weak momentum.
	assert.InDelta(t, 0.0, technicalBreakout(90, snap), 1e-9)
}

func TestSectorMomentum(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 50.0, sectorMomentum(0), 1e-9)
	assert.InDelta(t, 90.0, sectorMomentum(2), 1e-9)
	assert.InDelta(t, 100.0, sectorMomentum(4), 1e-9) // clamped
	assert.InDelta(t, 30.0, sectorMomentum(-2), 1e-9)
	assert.InDelta(t, 0.0, sectorMomentum(-8), 1e-9) // clamped
}

func TestVolatilityFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		atr  float64
		want float64
	}{
		{"too quiet 1pct", 1, 50},
		{"sweet spot 3pct", 3, 100},
		{"upper edge 5pct", 5, 100},
		{"elevated 6pct", 6, 80},
		{"hot 8pct", 8, 40},
		{"extreme 10pct", 10, 20},
		{"absurd 15pct", 15, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, volatilityFit(tt.atr, 100), 1e-9)
		})
	}
}

func TestScoreTotalInRange(t *testing.T) {
	t.Parallel()

	snaps := []indicators.Snapshot{
		{},
		{SMA20: 100, SMA50: 100, SMA200: 100, RSI14: 65, ATR14: 3, ADV45: 1e6, VolumeRatio: 2.5},
		{SMA20: 50, SMA50: 60, SMA200: 70, RSI14: 95, ATR14: 40, VolumeRatio: 10},
	}
	quotes := []market.Quote{
		{},
		{Price: 105, ChangePct: 2.5},
		{Price: 40, ChangePct: -9},
	}

	for _, snap := range snaps {
		for _, q := range quotes {
			b := Score(snap, q, nil, DefaultWeights())
			assert.GreaterOrEqual(t, b.Total, 0.0)
			assert.LessOrEqual(t, b.Total, 100.0)
			assert.GreaterOrEqual(t, b.Confidence, 0.0)
			assert.LessOrEqual(t, b.Confidence, 100.0)
		}
	}
}

func TestSentimentDefaultsToNeutral(t *testing.T) {
	t.Parallel()

	snap := indicators.Snapshot{SMA20: 98, SMA50: 95, RSI14: 60, ATR14: 3, VolumeRatio: 2}
	q := market.Quote{Price: 100, ChangePct: 1}

	w := DefaultWeights()
	w.NewsSentiment = 15

	b := Score(snap, q, nil, w)
	assert.InDelta(t, 50.0, b.NewsSentiment, 1e-9)

	s := 0.9
	b2 := Score(snap, q, &s, w)
	assert.InDelta(t, 90.0, b2.NewsSentiment, 1e-9)
	assert.Greater(t, b2.Total, b.Total)
}

func TestWeightsRenormalized(t *testing.T) {
	t.Parallel()

	snap := indicators.Snapshot{SMA20: 98, SMA50: 95, RSI14: 60, ATR14: 3, VolumeRatio: 3}
	q := market.Quote{Price: 100, ChangePct: 0}

	// Same relative weights at different scales give the same total.
	a := Score(snap, q, nil, Weights{VolumeSurge: 30, TechnicalBreakout: 30, SectorMomentum: 20, VolatilityFit: 20})
	b := Score(snap, q, nil, Weights{VolumeSurge: 3, TechnicalBreakout: 3, SectorMomentum: 2, VolatilityFit: 2})
	assert.InDelta(t, a.Total, b.Total, 1e-9)
}

func TestConfidenceRSIPenalty(t *testing.T) {
	t.Parallel()

	q := market.Quote{Price: 100, ChangePct: 2}
	base := indicators.Snapshot{SMA20: 98, SMA50: 95, ATR14: 3, VolumeRatio: 3}

	healthy := base
	healthy.RSI14 = 60
	extreme := base
	extreme.RSI14 = 85

	bh := Score(healthy, q, nil, DefaultWeights())
	be := Score(extreme, q, nil, DefaultWeights())
	assert.Greater(t, bh.Confidence, be.Confidence)
}

func TestZeroWeightsScoreZero(t *testing.T) {
	t.Parallel()

	b := Score(indicators.Snapshot{VolumeRatio: 3}, market.Quote{Price: 100}, nil, Weights{})
	assert.Zero(t, b.Total)
	assert.Zero(t, b.Confidence)
}
