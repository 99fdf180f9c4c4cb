package risk

import (
	"fmt"
	"sync"
	"time"
)

// Pause reasons, referenced by the trading-gate collaborator.
const (
	PauseDailyLoss   = "daily_loss_limit"
	PauseWeeklyLoss  = "weekly_loss_limit"
	PauseMonthlyLoss = "monthly_loss_limit"
)

// Entry-gate refusals that do not pause the account.
const (
	GateMaxOpenPositions = "max_open_positions"
	GateCapitalDeployed  = "max_capital_deployed"
)

// Limits configures the circuit breaker. Loss limits are fractions of
// total capital; zero disables a limit.
type Limits struct {
	TotalCapital    float64 `json:"total_capital" yaml:"total_capital"`
	DailyLossPct    float64 `json:"daily_loss_pct" yaml:"daily_loss_pct"`
	WeeklyLossPct   float64 `json:"weekly_loss_pct" yaml:"weekly_loss_pct"`
	MonthlyLossPct  float64 `json:"monthly_loss_pct" yaml:"monthly_loss_pct"`
	MaxOpenPosition int     `json:"max_open_positions" yaml:"max_open_positions"`
	MaxDeployedPct  float64 `json:"max_deployed_pct" yaml:"max_deployed_pct"`
}

// State is the snapshot the breaker exposes: realized P&L rollups,
// position counts, and the pause flag.
type State struct {
	DailyPnL          float64
	WeeklyPnL         float64
	MonthlyPnL        float64
	ConsecutiveLosses int
	OpenPositions     int
	CapitalDeployed   float64
	Paused            bool
	PauseReason       string
}

// Breaker gates new entries on realized-loss limits. All mutation goes
// through the mutex: closes may arrive from concurrent position workers,
// and Allow must observe the latest committed state. Pausing is automatic;
// resuming is only ever an explicit external call.
type Breaker struct {
	mu     sync.Mutex
	limits Limits
	st     State

	day   string // rollup bucket keys for the last recorded close
	week  string
	month string
}

func NewBreaker(limits Limits) *Breaker {
	return &Breaker{limits: limits}
}

// RecordOpen registers a confirmed fill: the order layer reports the
// deployed notional once the broker accepts it.
func (b *Breaker) RecordOpen(positionUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.OpenPositions++
	b.st.CapitalDeployed += positionUSD
}

// RecordClose folds a realized close into the day/week/month rollups and
// trips the breaker if any loss limit is breached. Repeated worsening
// closes keep an already-paused breaker paused.
func (b *Breaker) RecordClose(pnl, positionUSD float64, when time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll(when)

	b.st.DailyPnL += pnl
	b.st.WeeklyPnL += pnl
	b.st.MonthlyPnL += pnl
	if pnl < 0 {
		b.st.ConsecutiveLosses++
	} else {
		b.st.ConsecutiveLosses = 0
	}

	if b.st.OpenPositions > 0 {
		b.st.OpenPositions--
	}
	b.st.CapitalDeployed -= positionUSD
	if b.st.CapitalDeployed < 0 {
		b.st.CapitalDeployed = 0
	}

	b.checkLimits()
}

// roll resets any rollup whose calendar bucket has moved on.
func (b *Breaker) roll(when time.Time) {
	day := when.Format("2006-01-02")
	year, wk := when.ISOWeek()
	week := fmt.Sprintf("%04d-W%02d", year, wk)
	month := when.Format("2006-01")

	if b.day != day {
		b.day = day
		b.st.DailyPnL = 0
	}
	if b.week != week {
		b.week = week
		b.st.WeeklyPnL = 0
	}
	if b.month != month {
		b.month = month
		b.st.MonthlyPnL = 0
	}
}

func (b *Breaker) checkLimits() {
	if b.st.Paused || b.limits.TotalCapital <= 0 {
		return
	}

	type check struct {
		pnl    float64
		limit  float64
		reason string
	}
	for _, c := range []check{
		{b.st.DailyPnL, b.limits.DailyLossPct, PauseDailyLoss},
		{b.st.WeeklyPnL, b.limits.WeeklyLossPct, PauseWeeklyLoss},
		{b.st.MonthlyPnL, b.limits.MonthlyLossPct, PauseMonthlyLoss},
	} {
		if c.limit > 0 && -c.pnl >= c.limit*b.limits.TotalCapital {
			b.st.Paused = true
			b.st.PauseReason = c.reason
			return
		}
	}
}

// Allow reports whether a new entry is currently permitted. A false return
// carries the blocking reason. Existing positions are always managed
// regardless of this gate.
func (b *Breaker) Allow() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.st.Paused {
		return false, b.st.PauseReason
	}
	if b.limits.MaxOpenPosition > 0 && b.st.OpenPositions >= b.limits.MaxOpenPosition {
		return false, GateMaxOpenPositions
	}
	if b.limits.MaxDeployedPct > 0 && b.limits.TotalCapital > 0 &&
		b.st.CapitalDeployed/b.limits.TotalCapital >= b.limits.MaxDeployedPct {
		return false, GateCapitalDeployed
	}
	return true, ""
}

// Resume clears the pause flag. This is the manual collaborator action;
// the breaker never resumes on its own.
func (b *Breaker) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.Paused = false
	b.st.PauseReason = ""
}

// Snapshot returns a copy of the current state.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}
