package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInputs() SizingInputs {
	return SizingInputs{
		EntryPrice:      100,
		StopPrice:       95,
		TotalCapital:    1_000_000,
		RiskPerTradePct: 0.0015,
		MaxDeployedPct:  0.50,
		MinStopDistPct:  0.02,
		MaxStopDistPct:  0.06,
	}
}

func TestSizeReferenceScenario(t *testing.T) {
	t.Parallel()

	// $1M account risking 0.15% with a $5 stop: $1,500 risk, 300 shares,
	// $30,000 notional.
	res, err := Size(baseInputs())
	require.NoError(t, err)

	assert.False(t, res.Rejected)
	assert.InDelta(t, 1500.0, res.RiskUSD, 1e-9)
	assert.Equal(t, 300, res.Shares)
	assert.InDelta(t, 30000.0, res.PositionUSD, 1e-9)
	assert.InDelta(t, 0.05, res.StopDistPct, 1e-9)
}

func TestSizeIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		entry, stop, capital, riskPct float64
	}{
		{100, 95, 1_000_000, 0.0015},
		{52.37, 50.11, 250_000, 0.005},
		{18.10, 17.42, 75_000, 0.01},
		{412.0, 399.9, 2_500_000, 0.002},
	}

	for _, c := range cases {
		in := SizingInputs{
			EntryPrice:      c.entry,
			StopPrice:       c.stop,
			TotalCapital:    c.capital,
			RiskPerTradePct: c.riskPct,
		}
		res, err := Size(in)
		require.NoError(t, err)
		require.False(t, res.Rejected)

		perShare := c.entry - c.stop
		assert.Equal(t, int(math.Floor(res.RiskUSD/perShare)), res.Shares)
		assert.LessOrEqual(t, float64(res.Shares)*perShare, res.RiskUSD)
	}
}

func TestSizeRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*SizingInputs)
		want   RejectReason
	}{
		{"stop above entry", func(in *SizingInputs) { in.StopPrice = 105 }, RejectInvalidStop},
		{"stop equals entry", func(in *SizingInputs) { in.StopPrice = 100 }, RejectInvalidStop},
		{"stop too tight", func(in *SizingInputs) { in.StopPrice = 99.5 }, RejectStopTooTight},
		{"stop too wide", func(in *SizingInputs) { in.StopPrice = 90 }, RejectStopTooWide},
		{"zero shares", func(in *SizingInputs) {
			in.TotalCapital = 1000
			in.RiskPerTradePct = 0.001 // $1 risk against a $5 stop
		}, RejectZeroShares},
		{"capital limit", func(in *SizingInputs) {
			in.CapitalDeployed = 490_000 // 49% deployed; +3% breaches 50%
		}, RejectCapitalLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := baseInputs()
			tt.mutate(&in)

			res, err := Size(in)
			require.NoError(t, err)
			assert.True(t, res.Rejected)
			assert.Equal(t, tt.want, res.Reason)
			assert.Zero(t, res.Shares)
			assert.Zero(t, res.PositionUSD)
		})
	}
}

func TestSizeHardErrors(t *testing.T) {
	t.Parallel()

	in := baseInputs()
	in.TotalCapital = -5
	_, err := Size(in)
	assert.Error(t, err)

	in = baseInputs()
	in.EntryPrice = math.NaN()
	_, err = Size(in)
	assert.Error(t, err)

	in = baseInputs()
	in.RiskPerTradePct = 1.5
	_, err = Size(in)
	assert.Error(t, err)
}
