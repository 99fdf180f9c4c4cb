package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/pullback/journal"
	"github.com/rustyeddy/pullback/market"
	"github.com/rustyeddy/pullback/sim"
)

func newSimulateCmd(ro *rootOpts) *cobra.Command {
	var (
		dataDir   string
		asOfStr   string
		maxDays   int
		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "simulate SYMBOL [SYMBOL...]",
		Short: "Replay the decision path over historical bars",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				return fmt.Errorf("--data is required")
			}

			asOf, err := time.Parse(time.DateOnly, asOfStr)
			if err != nil {
				return fmt.Errorf("bad --as-of: %w", err)
			}

			cfg := ro.cfg
			if maxDays > 0 {
				cfg.Sim.MaxDays = maxDays
			}

			engine := sim.New(sim.Config{
				Indicators:      cfg.Indicators,
				Qualify:         cfg.Qualify,
				Weights:         cfg.Scoring,
				TotalCapital:    cfg.Account.TotalCapital,
				RiskPerTradePct: cfg.Account.RiskPerTradePct,
				MaxDays:         cfg.Sim.MaxDays,
				MinScore:        cfg.Sim.MinScore,
			}).WithLogger(ro.log)

			src := market.DirSource{Dir: dataDir}
			results := engine.RunBatch(cmd.Context(), src, args, asOf, cfg.Sim.Parallelism)

			for _, r := range results {
				switch {
				case errors.Is(r.Err, sim.ErrNoEntry):
					fmt.Printf("%-8s no entry\n", r.Symbol)
				case r.Err != nil:
					fmt.Printf("%-8s error: %v\n", r.Symbol, r.Err)
				default:
					t := r.Trade
					fmt.Printf("%-8s %s -> %s  entry=%.2f exit=%.2f shares=%d pnl=%.2f R=%.2f (%s)\n",
						t.Symbol,
						t.EntryDate.Format(time.DateOnly),
						t.ExitDate.Format(time.DateOnly),
						t.EntryPrice, t.ExitPrice, t.Shares,
						t.PnL, t.RMultiple, t.ExitReason,
					)
				}
			}

			trades := sim.Trades(results)
			stats := sim.Aggregate(trades)
			fmt.Printf("trades=%d wins=%d losses=%d win_rate=%.1f%% total_pnl=%.2f avg_r=%.2f pf=%.2f\n",
				stats.Trades, stats.Wins, stats.Losses, stats.WinRate,
				stats.TotalPnL, stats.AvgRMultiple, stats.ProfitFactor,
			)

			if noJournal || len(trades) == 0 {
				return nil
			}
			return recordRun(ro, asOf, len(args), trades, stats)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "Directory of per-symbol OHLCV CSV files")
	cmd.Flags().StringVar(&asOfStr, "as-of", "", "Simulation start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxDays, "max-days", 0, "Force exit after N days held (overrides config)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Skip recording the run")
	_ = cmd.MarkFlagRequired("as-of")

	return cmd
}

func recordRun(ro *rootOpts, asOf time.Time, symbols int, trades []*sim.SimulatedTrade, stats sim.Stats) error {
	cfgJSON, err := json.Marshal(ro.cfg)
	if err != nil {
		return err
	}

	run := journal.RunRecord{
		RunID:   journal.NewID(),
		Created: time.Now().UTC(),
		AsOf:    asOf,
		Symbols: symbols,
		Config:  cfgJSON,
		Stats:   stats,
	}

	switch ro.cfg.Journal.Type {
	case "none":
		return nil
	case "sqlite", "":
		j, err := journal.NewSQLite(ro.cfg.Journal.DBPath)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := j.RecordRun(run, trades); err != nil {
			return err
		}
	case "csv":
		recs := make([]journal.TradeRecord, 0, len(trades))
		for _, t := range trades {
			recs = append(recs, journal.NewTradeRecord(run.RunID, t))
		}
		if err := journal.ExportTradesCSV(ro.cfg.Journal.TradesFile, recs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown journal type %q", ro.cfg.Journal.Type)
	}

	ro.log.Info().Str("run_id", run.RunID).Int("trades", stats.Trades).Msg("run recorded")
	fmt.Printf("run %s recorded\n", run.RunID)
	return nil
}
