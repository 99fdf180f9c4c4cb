package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{
	"trade_id", "run_id", "symbol", "entry_date", "entry_price",
	"exit_date", "exit_price", "shares", "exit_reason",
	"pnl", "pnl_pct", "days_held", "r_multiple",
}

// ExportTradesCSV writes trade records to path with a header row.
func ExportTradesCSV(path string, trades []TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tradeHeader); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			t.TradeID,
			t.RunID,
			t.Symbol,
			t.EntryDate.Format(time.DateOnly),
			fmtF(t.EntryPrice),
			t.ExitDate.Format(time.DateOnly),
			fmtF(t.ExitPrice),
			strconv.Itoa(t.Shares),
			t.ExitReason,
			fmtF(t.PnL),
			fmtF(t.PnLPct),
			strconv.Itoa(t.DaysHeld),
			fmtF(t.RMultiple),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func fmtF(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
