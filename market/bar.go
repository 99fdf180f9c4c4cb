// Package market holds the price data types the engine consumes: daily
// OHLCV bars, quote snapshots, and the source interfaces the collaborators
// implement. The engine itself never fetches data.
package market

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Bar is one daily OHLCV bar. Bars are immutable once produced by the
// market-data collaborator.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is the latest price snapshot for a symbol.
type Quote struct {
	Price     float64
	ChangePct float64 // daily percent change, e.g. 1.5 for +1.5%
}

// Series is an ordered bar sequence, ascending by date.
type Series []Bar

// BarSource provides historical daily bars for a symbol. Implementations
// live outside the engine (CSV files, a database, a market-data API).
type BarSource interface {
	Bars(ctx context.Context, symbol string) (Series, error)
}

// QuoteSource provides the latest quote for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Last returns the most recent bar. Panics on an empty series; callers
// must Validate first.
func (s Series) Last() Bar {
	return s[len(s)-1]
}

// Validate checks for malformed bar data: out-of-order dates, non-positive
// or non-finite prices, highs below lows. Corrupt data is a hard error,
// never silently patched.
func (s Series) Validate() error {
	for i, b := range s {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) || !finite(b.Volume) {
			return fmt.Errorf("market: bar %d (%s): non-finite field", i, b.Date.Format("2006-01-02"))
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("market: bar %d (%s): non-positive price", i, b.Date.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("market: bar %d (%s): negative volume", i, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Low {
			return fmt.Errorf("market: bar %d (%s): high %.4f below low %.4f", i, b.Date.Format("2006-01-02"), b.High, b.Low)
		}
		if i > 0 && !s[i-1].Date.Before(b.Date) {
			return fmt.Errorf("market: bar %d (%s): dates not strictly ascending", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// LastQuote derives a Quote from the series tail: price is the last close,
// change is the percent move from the previous close. A one-bar series
// reports zero change.
func (s Series) LastQuote() Quote {
	last := s.Last()
	q := Quote{Price: last.Close}
	if len(s) > 1 {
		prev := s[len(s)-2].Close
		if prev > 0 {
			q.ChangePct = (last.Close - prev) / prev * 100
		}
	}
	return q
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
