// Package position models one open trade and the structure-based trailing
// stop that manages it. The stop only ever moves up: it ratchets to just
// under each confirmed higher low and never retreats.
package position

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/pullback/market"
)

// Status is the position lifecycle state. The only legal transition is
// OPEN -> CLOSED, made through Close.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ErrClosed is returned when a caller tries to mutate a closed position.
var ErrClosed = errors.New("position: already closed")

// StopRaise is emitted on an actual stop increase, never on a no-op.
type StopRaise struct {
	OldStop float64
	NewStop float64
	Reason  string
}

// CloseEvent is the realized-exit payload for the activity-log collaborator.
type CloseEvent struct {
	ExitPrice  float64
	PnL        float64
	PnLPct     float64
	ExitReason string
}

// Position is one confirmed-filled trade. The engine never creates a
// Position speculatively; the order layer hands one over only after the
// broker reports the fill.
type Position struct {
	Symbol     string
	EntryPrice float64
	Shares     int
	StopPrice  float64

	// StructuralHigh is the highest close since entry. StructuralLow is the
	// lowest low since the last StructuralHigh reset.
	StructuralHigh float64
	StructuralLow  float64

	OpenedAt time.Time
	Status   Status
}

// Open creates a position from a confirmed fill. The initial stop comes
// from the qualification result that produced the entry (buffered pullback
// low).
func Open(symbol string, entry float64, shares int, initialStop float64, openedAt time.Time) (*Position, error) {
	if entry <= 0 {
		return nil, fmt.Errorf("position: entry price must be positive, got %.4f", entry)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("position: shares must be positive, got %d", shares)
	}
	if initialStop <= 0 || initialStop >= entry {
		return nil, fmt.Errorf("position: initial stop %.4f must be below entry %.4f", initialStop, entry)
	}

	return &Position{
		Symbol:         symbol,
		EntryPrice:     entry,
		Shares:         shares,
		StopPrice:      initialStop,
		StructuralHigh: entry,
		StructuralLow:  entry,
		OpenedAt:       openedAt,
		Status:         StatusOpen,
	}, nil
}

// ApplyBar feeds one closed daily bar through the trailing-stop rules and
// returns a StopRaise when the stop actually moved. Exactly one caller per
// evaluation cycle may drive a position.
//
// Rules, in order:
//  1. A close above StructuralHigh resets the structure: the high moves to
//     this close and low tracking starts fresh from this bar.
//  2. Otherwise the bar's low extends StructuralLow downward.
//  3. A close at or above StructuralLow*1.02 confirms the bounce; the
//     candidate stop is StructuralLow minus the stop buffer.
//  4. The candidate only replaces the stop when strictly greater.
func (p *Position) ApplyBar(b market.Bar, stopBuffer float64) (*StopRaise, error) {
	if p.Status != StatusOpen {
		return nil, ErrClosed
	}

	if b.Close > p.StructuralHigh {
		// Fresh high: restart low tracking from this close. Seeding with the
		// close (not the bar's low) keeps the bounce check from firing on the
		// reset bar itself.
		p.StructuralHigh = b.Close
		p.StructuralLow = b.Close
	} else if b.Low < p.StructuralLow {
		p.StructuralLow = b.Low
	}

	if b.Close < p.StructuralLow*1.02 {
		return nil, nil // bounce not confirmed
	}

	candidate := p.StructuralLow * (1 - stopBuffer)
	if candidate <= p.StopPrice {
		return nil, nil
	}

	raise := &StopRaise{
		OldStop: p.StopPrice,
		NewStop: candidate,
		Reason:  "structural bounce confirmed",
	}
	p.StopPrice = candidate
	return raise, nil
}

// Close transitions the position to CLOSED and returns the realized close
// event. Closing twice is rejected.
func (p *Position) Close(exitPrice float64, reason string) (CloseEvent, error) {
	if p.Status != StatusOpen {
		return CloseEvent{}, ErrClosed
	}

	p.Status = StatusClosed

	pnl := (exitPrice - p.EntryPrice) * float64(p.Shares)
	return CloseEvent{
		ExitPrice:  exitPrice,
		PnL:        pnl,
		PnLPct:     (exitPrice - p.EntryPrice) / p.EntryPrice * 100,
		ExitReason: reason,
	}, nil
}
