package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func statTrades() []*SimulatedTrade {
	return []*SimulatedTrade{
		{Symbol: "A", PnL: 1200, RMultiple: 2.0, DaysHeld: 10},
		{Symbol: "B", PnL: -600, RMultiple: -1.0, DaysHeld: 4},
		{Symbol: "C", PnL: 300, RMultiple: 0.5, DaysHeld: 6},
		{Symbol: "D", PnL: -300, RMultiple: -0.5, DaysHeld: 8},
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	st := Aggregate(statTrades())

	assert.Equal(t, 4, st.Trades)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, 2, st.Losses)
	assert.InDelta(t, 50.0, st.WinRate, 1e-9)
	assert.InDelta(t, 600.0, st.TotalPnL, 1e-9)
	assert.InDelta(t, 0.25, st.AvgRMultiple, 1e-9)
	assert.InDelta(t, 1500.0/900.0, st.ProfitFactor, 1e-9)
	assert.InDelta(t, 1200.0, st.BestPnL, 1e-9)
	assert.InDelta(t, -600.0, st.WorstPnL, 1e-9)
	assert.InDelta(t, 7.0, st.AvgDaysHeld, 1e-9)
}

func TestAggregateOrderIndependent(t *testing.T) {
	t.Parallel()

	trades := statTrades()
	reversed := make([]*SimulatedTrade, len(trades))
	for i, tr := range trades {
		reversed[len(trades)-1-i] = tr
	}

	assert.Equal(t, Aggregate(trades), Aggregate(reversed))
}

func TestAggregateEdges(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Stats{}, Aggregate(nil))

	// All winners: profit factor left zero rather than dividing by zero.
	st := Aggregate([]*SimulatedTrade{
		{PnL: 100, RMultiple: 1, DaysHeld: 3},
		{PnL: 50, RMultiple: 0.5, DaysHeld: 2},
	})
	assert.Equal(t, 2, st.Wins)
	assert.Zero(t, st.Losses)
	assert.InDelta(t, 100.0, st.WinRate, 1e-9)
	assert.Zero(t, st.ProfitFactor)
	assert.InDelta(t, 50.0, st.WorstPnL, 1e-9)
}
