package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/pullback/market"
)

// BatchResult is one symbol's outcome in a batch run. Err carries
// ErrNoEntry or a real failure; either way the rest of the batch ran.
type BatchResult struct {
	Symbol string
	Trade  *SimulatedTrade
	Err    error
}

// RunBatch simulates each symbol independently with at most parallelism
// lifecycles in flight. Results are positionally stable: result i belongs
// to symbols[i], so output ordering is deterministic regardless of
// scheduling. Cancellation is honored between symbols, never mid-lifecycle.
func (e *Engine) RunBatch(ctx context.Context, src market.BarSource, symbols []string, asOf time.Time, parallelism int) []BatchResult {
	if parallelism < 1 {
		parallelism = 1
	}

	results := make([]BatchResult, len(symbols))
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Symbol: symbol, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := BatchResult{Symbol: symbol}
			bars, err := src.Bars(ctx, symbol)
			if err != nil {
				res.Err = err
			} else {
				res.Trade, res.Err = e.Run(ctx, symbol, bars, asOf)
			}
			results[i] = res

			if res.Err != nil {
				e.log.Debug().Str("symbol", symbol).Err(res.Err).Msg("simulation skipped")
			}
		}(i, symbol)
	}
	wg.Wait()

	return results
}

// Trades extracts the completed trades from a batch, dropping no-entry and
// failed symbols.
func Trades(results []BatchResult) []*SimulatedTrade {
	var out []*SimulatedTrade
	for _, r := range results {
		if r.Err == nil && r.Trade != nil {
			out = append(out, r.Trade)
		}
	}
	return out
}
