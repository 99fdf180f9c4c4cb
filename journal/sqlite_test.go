package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/pullback/sim"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j
}

func sampleTrade(symbol string) *sim.SimulatedTrade {
	entry := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 4)

	return &sim.SimulatedTrade{
		Symbol:     symbol,
		EntryDate:  entry,
		EntryPrice: 101,
		ExitDate:   exit,
		ExitPrice:  100.293,
		Shares:     406,
		ExitReason: sim.ExitStopHit,
		PnL:        -287.042,
		PnLPct:     -0.7,
		DaysHeld:   4,
		RMultiple:  -0.1918,
		Events: []sim.Event{
			{Date: entry, Type: sim.EventEntry, Price: 101},
			{Date: entry.AddDate(0, 0, 3), Type: sim.EventStopRaised, Price: 103.10, OldStop: 97.314, NewStop: 100.293},
			{Date: exit, Type: sim.EventExit, Price: 100.293, Note: sim.ExitStopHit},
		},
	}
}

func sampleRun(trades []*sim.SimulatedTrade) RunRecord {
	return RunRecord{
		RunID:   NewID(),
		Created: time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC),
		AsOf:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbols: len(trades),
		Config:  []byte(`{"max_days":30}`),
		Stats:   sim.Aggregate(trades),
	}
}

func TestSQLiteRecordRunRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	trades := []*sim.SimulatedTrade{sampleTrade("ACME"), sampleTrade("BOLT")}
	run := sampleRun(trades)
	require.NoError(t, j.RecordRun(run, trades))

	got, err := j.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Symbols, got.Symbols)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Stats.Trades, got.Stats.Trades)
	assert.InDelta(t, run.Stats.TotalPnL, got.Stats.TotalPnL, 1e-6)
	assert.True(t, got.AsOf.Equal(run.AsOf))

	stored, err := j.ListTradesByRun(run.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "ACME", stored[0].Symbol)
	assert.Equal(t, "BOLT", stored[1].Symbol)
	assert.InDelta(t, 101.0, stored[0].EntryPrice, 1e-9)
	assert.Equal(t, 406, stored[0].Shares)
	assert.Equal(t, sim.ExitStopHit, stored[0].ExitReason)

	events, err := j.ListEventsByTrade(stored[0].TradeID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, sim.EventEntry, events[0].Type)
	assert.Equal(t, sim.EventStopRaised, events[1].Type)
	assert.InDelta(t, 100.293, events[1].NewStop, 1e-9)
	assert.Equal(t, sim.EventExit, events[2].Type)
}

func TestSQLiteGetRunMissing(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	_, err := j.GetRun("nope")
	assert.Error(t, err)
}

func TestSQLiteListRunsOrder(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	first := sampleRun(nil)
	first.RunID = "01AAAAAAAAAAAAAAAAAAAAAAAA"
	second := sampleRun(nil)
	second.RunID = "01BBBBBBBBBBBBBBBBBBBBBBBB"
	require.NoError(t, j.RecordRun(first, nil))
	require.NoError(t, j.RecordRun(second, nil))

	runs, err := j.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// ULIDs sort lexically by creation time, so newest comes first.
	assert.Equal(t, second.RunID, runs[0].RunID)
	assert.Equal(t, first.RunID, runs[1].RunID)
}

func TestExportTradesCSV(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	trades := []*sim.SimulatedTrade{sampleTrade("ACME")}
	run := sampleRun(trades)
	require.NoError(t, j.RecordRun(run, trades))

	stored, err := j.ListTradesByRun(run.RunID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, ExportTradesCSV(path, stored))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tradeHeader, rows[0])
	assert.Equal(t, "ACME", rows[1][2])
	assert.Equal(t, "2025-03-10", rows[1][3])
	assert.Equal(t, "406", rows[1][7])
}
