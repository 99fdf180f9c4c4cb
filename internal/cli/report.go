package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/pullback/journal"
)

func newReportCmd(ro *rootOpts) *cobra.Command {
	var (
		runID   string
		limit   int
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recorded simulation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(ro.cfg.Journal.DBPath)
			if err != nil {
				return err
			}
			defer j.Close()

			if runID == "" {
				runs, err := j.ListRuns(limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Println("no runs recorded")
					return nil
				}
				for _, r := range runs {
					fmt.Printf("%s  %s  as_of=%s symbols=%d trades=%d win_rate=%.1f%% pnl=%.2f\n",
						r.RunID,
						r.Created.Format(time.DateOnly),
						r.AsOf.Format(time.DateOnly),
						r.Symbols,
						r.Stats.Trades,
						r.Stats.WinRate,
						r.Stats.TotalPnL,
					)
				}
				return nil
			}

			run, err := j.GetRun(runID)
			if err != nil {
				return err
			}
			st := run.Stats
			fmt.Printf("run %s (as of %s, %d symbols)\n", run.RunID, run.AsOf.Format(time.DateOnly), run.Symbols)
			fmt.Printf("trades=%d wins=%d losses=%d win_rate=%.1f%%\n", st.Trades, st.Wins, st.Losses, st.WinRate)
			fmt.Printf("total_pnl=%.2f avg_r=%.2f pf=%.2f best=%.2f worst=%.2f avg_days=%.1f\n",
				st.TotalPnL, st.AvgRMultiple, st.ProfitFactor, st.BestPnL, st.WorstPnL, st.AvgDaysHeld)

			trades, err := j.ListTradesByRun(runID)
			if err != nil {
				return err
			}
			for _, t := range trades {
				fmt.Printf("  %-8s %s -> %s  entry=%.2f exit=%.2f shares=%d pnl=%.2f R=%.2f (%s)\n",
					t.Symbol,
					t.EntryDate.Format(time.DateOnly),
					t.ExitDate.Format(time.DateOnly),
					t.EntryPrice, t.ExitPrice, t.Shares,
					t.PnL, t.RMultiple, t.ExitReason,
				)
			}

			if csvPath != "" {
				if err := journal.ExportTradesCSV(csvPath, trades); err != nil {
					return err
				}
				fmt.Printf("exported %d trades to %s\n", len(trades), csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show one run in detail")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max runs to list")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Export the run's trades to a CSV file (with --run)")

	return cmd
}
