// Package cli wires the engine packages into the pullback command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/pullback/config"
)

// rootOpts carries the persistent flags plus the loaded configuration
// into every subcommand.
type rootOpts struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	NoColor    bool

	cfg *config.Config
	log zerolog.Logger
}

func NewRootCmd() *cobra.Command {
	ro := &rootOpts{}

	cmd := &cobra.Command{
		Use:           "pullback",
		Short:         "Pullback — trend-pullback scanning and simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&ro.DBPath, "db", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&ro.NoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(ro.LogLevel)
		if err != nil {
			return fmt.Errorf("bad --log-level %q: %w", ro.LogLevel, err)
		}
		ro.log = zerolog.New(zerolog.ConsoleWriter{
			Out:     os.Stderr,
			NoColor: ro.NoColor,
		}).Level(level).With().Timestamp().Logger()

		if ro.ConfigPath != "" {
			ro.cfg, err = config.LoadFromFile(ro.ConfigPath)
		} else {
			ro.cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		if ro.DBPath != "" {
			ro.cfg.Journal.DBPath = ro.DBPath
		}
		return nil
	}

	cmd.AddCommand(
		newScanCmd(ro),
		newSimulateCmd(ro),
		newReportCmd(ro),
		newConfigCmd(ro),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pullback (dev)")
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
