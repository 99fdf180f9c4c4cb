package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/pullback/market"
	"github.com/rustyeddy/pullback/scan"
)

func newScanCmd(ro *rootOpts) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "scan SYMBOL [SYMBOL...]",
		Short: "Scan symbols for qualified pullback entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				return fmt.Errorf("--data is required")
			}

			cfg := ro.cfg
			src := market.DirSource{Dir: dataDir}
			scanner := scan.New(scan.Config{
				Indicators:      cfg.Indicators,
				Qualify:         cfg.Qualify,
				Weights:         cfg.Scoring,
				TotalCapital:    cfg.Account.TotalCapital,
				RiskPerTradePct: cfg.Account.RiskPerTradePct,
				MaxDeployedPct:  cfg.Account.MaxDeployedPct,
				MinScore:        cfg.Sim.MinScore,
				Parallelism:     cfg.Sim.Parallelism,
			}, src, src).WithLogger(ro.log)

			res, err := scanner.Scan(cmd.Context(), args)
			if err != nil {
				return err
			}

			if res.Paused {
				fmt.Printf("scan paused: %s (resume required)\n", res.PauseReason)
				return nil
			}
			if res.Blocked {
				fmt.Printf("scan blocked: %s\n", res.BlockReason)
				return nil
			}

			for _, opp := range res.Opportunities {
				fmt.Printf("%-8s score=%5.1f conf=%5.1f stop=%.2f shares=%d position=$%.2f risk=$%.2f\n",
					opp.Symbol,
					opp.Score.Total,
					opp.Score.Confidence,
					opp.Qualification.StopPrice,
					opp.Sizing.Shares,
					opp.Sizing.PositionUSD,
					opp.Sizing.RiskUSD,
				)
			}

			skipped := make([]string, 0, len(res.Skipped))
			for sym := range res.Skipped {
				skipped = append(skipped, sym)
			}
			sort.Strings(skipped)
			for _, sym := range skipped {
				fmt.Printf("%-8s skipped: %s\n", sym, res.Skipped[sym])
			}

			fmt.Printf("%d opportunities, %d skipped\n", len(res.Opportunities), len(res.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "Directory of per-symbol OHLCV CSV files")

	return cmd
}
