// Package risk covers the account-level money rules: position sizing and
// the loss-limit circuit breaker. Rejections are ordinary values the caller
// inspects, not errors; only malformed configuration is an error.
package risk

import (
	"fmt"
	"math"
)

// RejectReason tags why a sizing request was refused.
type RejectReason string

const (
	RejectNone         RejectReason = ""
	RejectInvalidStop  RejectReason = "invalid_stop"
	RejectStopTooTight RejectReason = "stop_too_tight"
	RejectStopTooWide  RejectReason = "stop_too_wide"
	RejectZeroShares   RejectReason = "zero_shares"
	RejectCapitalLimit RejectReason = "capital_limit_exceeded"
)

// SizingInputs is everything the sizer needs for one entry decision.
// Percentages are fractions (0.0015 = 0.15%).
type SizingInputs struct {
	EntryPrice float64
	StopPrice  float64

	TotalCapital    float64
	RiskPerTradePct float64
	CapitalDeployed float64
	MaxDeployedPct  float64

	MinStopDistPct float64
	MaxStopDistPct float64
}

// SizingResult is the sizer's verdict. When Rejected is set, Shares and
// PositionUSD are zero and Reason names the constraint that bit.
type SizingResult struct {
	RiskUSD     float64
	Shares      int
	PositionUSD float64
	StopDistPct float64
	Rejected    bool
	Reason      RejectReason
}

// Size computes the share count for a risk-based entry: risk a fixed
// fraction of capital, divided by the per-share loss to the stop.
func Size(in SizingInputs) (SizingResult, error) {
	if err := in.validate(); err != nil {
		return SizingResult{}, err
	}

	res := SizingResult{RiskUSD: in.TotalCapital * in.RiskPerTradePct}

	riskPerShare := in.EntryPrice - in.StopPrice
	if riskPerShare <= 0 {
		return rejected(res, RejectInvalidStop), nil
	}

	res.StopDistPct = riskPerShare / in.EntryPrice
	if in.MinStopDistPct > 0 && res.StopDistPct < in.MinStopDistPct {
		return rejected(res, RejectStopTooTight), nil
	}
	if in.MaxStopDistPct > 0 && res.StopDistPct > in.MaxStopDistPct {
		return rejected(res, RejectStopTooWide), nil
	}

	res.Shares = int(math.Floor(res.RiskUSD / riskPerShare))
	if res.Shares == 0 {
		return rejected(res, RejectZeroShares), nil
	}
	res.PositionUSD = float64(res.Shares) * in.EntryPrice

	if in.MaxDeployedPct > 0 &&
		(in.CapitalDeployed+res.PositionUSD)/in.TotalCapital > in.MaxDeployedPct {
		res.Shares = 0
		res.PositionUSD = 0
		return rejected(res, RejectCapitalLimit), nil
	}

	return res, nil
}

func rejected(res SizingResult, reason RejectReason) SizingResult {
	res.Rejected = true
	res.Reason = reason
	return res
}

func (in SizingInputs) validate() error {
	for name, v := range map[string]float64{
		"entry_price":        in.EntryPrice,
		"stop_price":         in.StopPrice,
		"total_capital":      in.TotalCapital,
		"risk_per_trade_pct": in.RiskPerTradePct,
		"capital_deployed":   in.CapitalDeployed,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("risk: %s is not finite", name)
		}
	}
	if in.TotalCapital <= 0 {
		return fmt.Errorf("risk: total capital must be positive, got %.2f", in.TotalCapital)
	}
	if in.RiskPerTradePct <= 0 || in.RiskPerTradePct >= 1 {
		return fmt.Errorf("risk: risk per trade must be in (0,1), got %.4f", in.RiskPerTradePct)
	}
	if in.EntryPrice <= 0 {
		return fmt.Errorf("risk: entry price must be positive, got %.4f", in.EntryPrice)
	}
	if in.CapitalDeployed < 0 {
		return fmt.Errorf("risk: capital deployed cannot be negative, got %.2f", in.CapitalDeployed)
	}
	return nil
}
