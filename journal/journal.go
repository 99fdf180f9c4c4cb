// Package journal persists simulation output for the reporting layer.
// The engine never writes here itself; the CLI hands completed runs over.
package journal

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rustyeddy/pullback/sim"
)

// RunRecord is one batch-run summary row.
type RunRecord struct {
	RunID   string
	Created time.Time
	AsOf    time.Time
	Symbols int
	Config  []byte // serialized engine config for reproducibility

	Stats sim.Stats
}

// TradeRecord mirrors one simulated trade, keyed to its run.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Symbol     string
	EntryDate  time.Time
	EntryPrice float64
	ExitDate   time.Time
	ExitPrice  float64
	Shares     int
	ExitReason string
	PnL        float64
	PnLPct     float64
	DaysHeld   int
	RMultiple  float64
}

// EventRecord is one timeline entry of a simulated trade.
type EventRecord struct {
	TradeID string
	Date    time.Time
	Type    string
	Price   float64
	OldStop float64
	NewStop float64
	Note    string
}

// Journal is what the CLI writes runs through.
type Journal interface {
	RecordRun(run RunRecord, trades []*sim.SimulatedTrade) error
	Close() error
}

// NewID returns a ULID string. Time-sortable IDs keep run listings and
// SQLite indexes in insertion order.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// NewTradeRecord flattens a simulated trade for storage, assigning a
// fresh trade ID.
func NewTradeRecord(runID string, t *sim.SimulatedTrade) TradeRecord {
	return TradeRecord{
		TradeID:    NewID(),
		RunID:      runID,
		Symbol:     t.Symbol,
		EntryDate:  t.EntryDate,
		EntryPrice: t.EntryPrice,
		ExitDate:   t.ExitDate,
		ExitPrice:  t.ExitPrice,
		Shares:     t.Shares,
		ExitReason: t.ExitReason,
		PnL:        t.PnL,
		PnLPct:     t.PnLPct,
		DaysHeld:   t.DaysHeld,
		RMultiple:  t.RMultiple,
	}
}
