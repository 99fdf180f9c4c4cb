// Package scan runs the entry decision path — indicators, qualification,
// scoring, sizing — across a watchlist. Symbols are independent, so the
// fan-out is bounded only by the configured parallelism; all data is
// fetched through collaborator interfaces before the pure engine steps run.
package scan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/market"
	"github.com/rustyeddy/pullback/qualify"
	"github.com/rustyeddy/pullback/risk"
	"github.com/rustyeddy/pullback/score"
)

// SentimentSource is the optional AI/news collaborator. Absence of a
// score (ok=false) degrades to neutral rather than blocking the scan.
type SentimentSource interface {
	Sentiment(ctx context.Context, symbol string) (score float64, ok bool, err error)
}

// Opportunity is one symbol that passed qualification and sizing,
// ready for the approval collaborator.
type Opportunity struct {
	Symbol        string
	Qualification qualify.Result
	Score         score.Breakdown
	Sizing        risk.SizingResult
}

// Result is a completed scan. When the circuit breaker blocks entries the
// scan short-circuits; that is a normal outcome. Paused means a tripped
// loss limit that needs an explicit resume, Blocked an ordinary entry
// gate (open positions, deployed capital) that clears on its own.
type Result struct {
	ScannedAt     time.Time
	Opportunities []Opportunity
	Skipped       map[string]string // symbol -> why it did not qualify
	Paused        bool
	PauseReason   string
	Blocked       bool
	BlockReason   string
}

// Config is the immutable per-scan configuration.
type Config struct {
	Indicators indicators.Config
	Qualify    qualify.Config
	Weights    score.Weights

	TotalCapital    float64
	RiskPerTradePct float64
	MaxDeployedPct  float64
	MinScore        float64

	Parallelism int
}

// Scanner wires the collaborators to the decision path.
type Scanner struct {
	cfg       Config
	bars      market.BarSource
	quotes    market.QuoteSource
	sentiment SentimentSource // may be nil
	breaker   *risk.Breaker   // may be nil
	log       zerolog.Logger
}

func New(cfg Config, bars market.BarSource, quotes market.QuoteSource) *Scanner {
	return &Scanner{
		cfg:    cfg,
		bars:   bars,
		quotes: quotes,
		log:    zerolog.Nop(),
	}
}

// WithSentiment attaches the optional sentiment collaborator.
func (s *Scanner) WithSentiment(src SentimentSource) *Scanner {
	s.sentiment = src
	return s
}

// WithBreaker attaches the circuit breaker consulted before any entry.
func (s *Scanner) WithBreaker(b *risk.Breaker) *Scanner {
	s.breaker = b
	return s
}

func (s *Scanner) WithLogger(l zerolog.Logger) *Scanner {
	s.log = l
	return s
}

// Scan evaluates the watchlist. Opportunities come back sorted by total
// score descending with a symbol tie-break, so output order is
// deterministic regardless of goroutine scheduling.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (Result, error) {
	res := Result{
		ScannedAt: time.Now().UTC(),
		Skipped:   make(map[string]string),
	}

	if s.breaker != nil {
		if ok, reason := s.breaker.Allow(); !ok {
			s.log.Warn().Str("reason", reason).Msg("scan blocked: new entries not permitted")
			if s.breaker.Snapshot().Paused {
				res.Paused = true
				res.PauseReason = reason
			} else {
				res.Blocked = true
				res.BlockReason = reason
			}
			return res, nil
		}
	}

	parallelism := s.cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	type outcome struct {
		opp  *Opportunity
		skip string
	}
	outcomes := make([]outcome, len(symbols))

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			opp, skip := s.evaluate(ctx, symbol)
			outcomes[i] = outcome{opp: opp, skip: skip}
		}(i, symbol)
	}
	wg.Wait()

	for i, symbol := range symbols {
		if o := outcomes[i].opp; o != nil {
			res.Opportunities = append(res.Opportunities, *o)
		} else {
			res.Skipped[symbol] = outcomes[i].skip
		}
	}

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		a, b := res.Opportunities[i], res.Opportunities[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		return a.Symbol < b.Symbol
	})

	return res, nil
}

// evaluate runs the decision path for one symbol. A non-nil skip string
// explains a negative result; collaborator failures also surface here so
// one symbol never sinks the rest of the scan.
func (s *Scanner) evaluate(ctx context.Context, symbol string) (*Opportunity, string) {
	bars, err := s.bars.Bars(ctx, symbol)
	if err != nil {
		return nil, "bars: " + err.Error()
	}
	if err := bars.Validate(); err != nil {
		return nil, "bars: " + err.Error()
	}

	snap, err := indicators.Compute(bars, s.cfg.Indicators)
	if err != nil {
		return nil, err.Error()
	}

	qres := qualify.Evaluate(bars, snap, s.cfg.Qualify)
	if !qres.Passed {
		return nil, failSummary(qres)
	}

	quote, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		return nil, "quote: " + err.Error()
	}

	var sentiment *float64
	if s.sentiment != nil {
		if v, ok, err := s.sentiment.Sentiment(ctx, symbol); err != nil {
			// Sentiment must never block a decision; fall back to neutral.
			s.log.Debug().Str("symbol", symbol).Err(err).Msg("sentiment unavailable, using neutral")
		} else if ok {
			sentiment = &v
		}
	}

	breakdown := score.Score(snap, quote, sentiment, s.cfg.Weights)
	if breakdown.Total < s.cfg.MinScore {
		return nil, "score below threshold"
	}

	deployed := 0.0
	if s.breaker != nil {
		deployed = s.breaker.Snapshot().CapitalDeployed
	}
	sizing, err := risk.Size(risk.SizingInputs{
		EntryPrice:      quote.Price,
		StopPrice:       qres.StopPrice,
		TotalCapital:    s.cfg.TotalCapital,
		RiskPerTradePct: s.cfg.RiskPerTradePct,
		CapitalDeployed: deployed,
		MaxDeployedPct:  s.cfg.MaxDeployedPct,
		MinStopDistPct:  s.cfg.Qualify.MinStopDistPct,
		MaxStopDistPct:  s.cfg.Qualify.MaxStopDistPct,
	})
	if err != nil {
		return nil, "sizing: " + err.Error()
	}
	if sizing.Rejected {
		return nil, "sizing: " + string(sizing.Reason)
	}

	return &Opportunity{
		Symbol:        symbol,
		Qualification: qres,
		Score:         breakdown,
		Sizing:        sizing,
	}, ""
}

func failSummary(qres qualify.Result) string {
	msg := "failed rules:"
	for _, id := range qres.FailedRules {
		msg += " " + string(id)
	}
	return msg
}
