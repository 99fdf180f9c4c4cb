package sim

// Stats aggregates a set of closed simulated trades. The reduction is pure
// and order-independent: sums and extrema only.
type Stats struct {
	Trades int `json:"trades"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	WinRate      float64 `json:"win_rate"` // percent
	TotalPnL     float64 `json:"total_pnl"`
	AvgRMultiple float64 `json:"avg_r_multiple"`
	// ProfitFactor is gross profit over gross loss; zero when the set has
	// no losing trades to divide by.
	ProfitFactor float64 `json:"profit_factor"`
	BestPnL      float64 `json:"best_pnl"`
	WorstPnL     float64 `json:"worst_pnl"`
	AvgDaysHeld  float64 `json:"avg_days_held"`
}

// Aggregate reduces trades to summary statistics.
func Aggregate(trades []*SimulatedTrade) Stats {
	var st Stats
	if len(trades) == 0 {
		return st
	}

	grossProfit, grossLoss := 0.0, 0.0
	sumR, sumDays := 0.0, 0.0

	for i, t := range trades {
		st.Trades++
		st.TotalPnL += t.PnL
		sumR += t.RMultiple
		sumDays += float64(t.DaysHeld)

		switch {
		case t.PnL > 0:
			st.Wins++
			grossProfit += t.PnL
		case t.PnL < 0:
			st.Losses++
			grossLoss += -t.PnL
		}

		if i == 0 || t.PnL > st.BestPnL {
			st.BestPnL = t.PnL
		}
		if i == 0 || t.PnL < st.WorstPnL {
			st.WorstPnL = t.PnL
		}
	}

	n := float64(st.Trades)
	st.WinRate = float64(st.Wins) / n * 100
	st.AvgRMultiple = sumR / n
	st.AvgDaysHeld = sumDays / n
	if grossLoss > 0 {
		st.ProfitFactor = grossProfit / grossLoss
	}

	return st
}
