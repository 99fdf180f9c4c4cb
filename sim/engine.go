package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
	"github.com/rustyeddy/pullback/position"
	"github.com/rustyeddy/pullback/qualify"
	"github.com/rustyeddy/pullback/risk"
	"github.com/rustyeddy/pullback/score"
)

// ErrNoEntry means the bar window never produced a qualified, scored, and
// sized entry. A normal outcome for most symbols, not a failure.
var ErrNoEntry = errors.New("sim: no qualifying entry in window")

// Config holds everything one simulation run depends on. It is immutable
// during a run, which is what makes parallel symbol batches safe.
type Config struct {
	Indicators indicators.Config
	Qualify    qualify.Config
	Weights    score.Weights

	TotalCapital    float64
	RiskPerTradePct float64

	// MaxDays forces an exit after this many bars in the trade; zero
	// disables the limit.
	MaxDays int
	// MinScore gates entries on the weighted total score; zero admits any
	// qualified entry.
	MinScore float64
}

// Engine drives the decision path over historical data. Runs for distinct
// symbols are independent; one lifecycle is inherently sequential.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, log: zerolog.Nop()}
}

// WithLogger returns the engine logging run progress to l.
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.log = l
	return e
}

// Run replays one symbol from the first bar at or after asOf and returns
// exactly one completed trade, or ErrNoEntry. Identical inputs produce
// byte-identical output: the engine consults no clock and no external
// state.
func (e *Engine) Run(ctx context.Context, symbol string, bars market.Series, asOf time.Time) (*SimulatedTrade, error) {
	if err := bars.Validate(); err != nil {
		return nil, err
	}

	start := -1
	for i, b := range bars {
		if !b.Date.Before(asOf) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("sim: %s: no bars at or after %s", symbol, asOf.Format("2006-01-02"))
	}

	for i := start; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window := bars[:i+1]

		snap, err := indicators.Compute(window, e.cfg.Indicators)
		if err != nil {
			if errors.Is(err, indicators.ErrInsufficientData) {
				continue
			}
			return nil, err
		}

		qres := qualify.Evaluate(window, snap, e.cfg.Qualify)
		if !qres.Passed {
			continue
		}

		// Replay has no sentiment collaborator; the factor sits at neutral
		// so identical inputs always score identically.
		breakdown := score.Score(snap, window.LastQuote(), nil, e.cfg.Weights)
		if breakdown.Total < e.cfg.MinScore {
			continue
		}

		sizing, err := risk.Size(risk.SizingInputs{
			EntryPrice:      window.Last().Close,
			StopPrice:       qres.StopPrice,
			TotalCapital:    e.cfg.TotalCapital,
			RiskPerTradePct: e.cfg.RiskPerTradePct,
		})
		if err != nil {
			return nil, err
		}
		if sizing.Rejected {
			continue
		}

		e.log.Debug().
			Str("symbol", symbol).
			Time("date", bars[i].Date).
			Float64("score", breakdown.Total).
			Int("shares", sizing.Shares).
			Msg("simulated entry")

		return e.runLifecycle(ctx, symbol, bars, i, qres, sizing)
	}

	return nil, ErrNoEntry
}

// runLifecycle manages the open trade from the entry bar to its exit.
func (e *Engine) runLifecycle(ctx context.Context, symbol string, bars market.Series, entryIdx int, qres qualify.Result, sizing risk.SizingResult) (*SimulatedTrade, error) {
	entryBar := bars[entryIdx]
	entry := entryBar.Close

	pos, err := position.Open(symbol, entry, sizing.Shares, qres.StopPrice, entryBar.Date)
	if err != nil {
		return nil, err
	}

	trade := &SimulatedTrade{
		Symbol:     symbol,
		EntryDate:  entryBar.Date,
		EntryPrice: entry,
		Shares:     sizing.Shares,
	}
	trade.Events = append(trade.Events, Event{
		Date:  entryBar.Date,
		Type:  EventEntry,
		Price: entry,
		Note:  fmt.Sprintf("entered %d shares, initial stop %.2f", sizing.Shares, qres.StopPrice),
	})
	trade.Daily = append(trade.Daily, snapshot(entryBar, pos.StopPrice))

	exitPx, exitReason := 0.0, ""
	exitDate := entryBar.Date

	for j := entryIdx + 1; j < len(bars); j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := bars[j]

		// The stop in force overnight governs this bar first.
		if b.Low <= pos.StopPrice {
			exitPx = pos.StopPrice
			if b.Open < pos.StopPrice {
				exitPx = b.Open // gapped through the stop
			}
			exitReason = ExitStopHit
			exitDate = b.Date
			trade.Daily = append(trade.Daily, snapshot(b, pos.StopPrice))
			break
		}

		raise, err := pos.ApplyBar(b, e.cfg.Qualify.StopBuffer)
		if err != nil {
			return nil, err
		}
		if raise != nil {
			trade.Events = append(trade.Events, Event{
				Date:    b.Date,
				Type:    EventStopRaised,
				Price:   b.Close,
				OldStop: raise.OldStop,
				NewStop: raise.NewStop,
				Note:    raise.Reason,
			})
		}
		trade.Daily = append(trade.Daily, snapshot(b, pos.StopPrice))

		held := j - entryIdx
		if e.cfg.MaxDays > 0 && held >= e.cfg.MaxDays {
			exitPx = b.Close
			exitReason = ExitMaxDays
			exitDate = b.Date
			break
		}
	}

	if exitReason == "" {
		// Ran out of history while still open.
		last := bars.Last()
		exitPx = last.Close
		exitReason = ExitEndOfData
		exitDate = last.Date
	}

	ev, err := pos.Close(exitPx, exitReason)
	if err != nil {
		return nil, err
	}
	trade.Events = append(trade.Events, Event{
		Date:  exitDate,
		Type:  EventExit,
		Price: exitPx,
		Note:  exitReason,
	})

	trade.ExitDate = exitDate
	trade.ExitPrice = exitPx
	trade.ExitReason = exitReason
	trade.PnL = ev.PnL
	trade.PnLPct = ev.PnLPct
	trade.DaysHeld = len(trade.Daily) - 1

	initialRisk := (entry - qres.StopPrice) * float64(sizing.Shares)
	if initialRisk > 0 {
		trade.RMultiple = trade.PnL / initialRisk
	}

	return trade, nil
}

func snapshot(b market.Bar, stop float64) DailySnapshot {
	return DailySnapshot{
		Date:   b.Date,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
		Stop:   stop,
	}
}
