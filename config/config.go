// Package config loads and validates the engine configuration. The loaded
// Config is an immutable value handed into each engine call; nothing in the
// engine reads configuration from globals.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/pullback/indicators"
	"github.com/rustyeddy/pullback/qualify"
	"github.com/rustyeddy/pullback/risk"
	"github.com/rustyeddy/pullback/score"
)

// Config is the complete engine configuration.
type Config struct {
	Account    AccountConfig     `json:"account" yaml:"account"`
	Indicators indicators.Config `json:"indicators" yaml:"indicators"`
	Qualify    qualify.Config    `json:"qualify" yaml:"qualify"`
	Scoring    score.Weights     `json:"scoring" yaml:"scoring"`
	Sim        SimConfig         `json:"sim" yaml:"sim"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
}

// AccountConfig holds capital and risk limits. Percentages are fractions.
type AccountConfig struct {
	TotalCapital     float64 `json:"total_capital" yaml:"total_capital"`
	RiskPerTradePct  float64 `json:"risk_per_trade_pct" yaml:"risk_per_trade_pct"`
	MaxDeployedPct   float64 `json:"max_deployed_pct" yaml:"max_deployed_pct"`
	MaxOpenPositions int     `json:"max_open_positions" yaml:"max_open_positions"`
	DailyLossPct     float64 `json:"daily_loss_pct" yaml:"daily_loss_pct"`
	WeeklyLossPct    float64 `json:"weekly_loss_pct" yaml:"weekly_loss_pct"`
	MonthlyLossPct   float64 `json:"monthly_loss_pct" yaml:"monthly_loss_pct"`
}

// SimConfig tunes the simulation engine.
type SimConfig struct {
	MaxDays     int     `json:"max_days" yaml:"max_days"`
	MinScore    float64 `json:"min_score" yaml:"min_score"`
	Parallelism int     `json:"parallelism" yaml:"parallelism"`
}

// JournalConfig selects where simulation results are recorded.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite" or "csv"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
}

// Default returns a configuration with the standard strategy parameters.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			TotalCapital:     1_000_000,
			RiskPerTradePct:  0.0015,
			MaxDeployedPct:   0.50,
			MaxOpenPositions: 5,
			DailyLossPct:     0.02,
			WeeklyLossPct:    0.04,
			MonthlyLossPct:   0.06,
		},
		Qualify: qualify.DefaultConfig(),
		Scoring: score.DefaultWeights(),
		Sim: SimConfig{
			MaxDays:     30,
			MinScore:    0,
			Parallelism: 4,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./pullback.sqlite",
		},
	}
}

// LoadFromFile reads a config file, YAML first with a JSON fallback, then
// layers environment overrides on top. Missing sections keep defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load returns the default configuration with environment overrides;
// used when no config file is given.
func Load() (*Config, error) {
	cfg := Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides selected fields from PULLBACK_* environment
// variables. A .env file in the working directory is honored if present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	envFloat("PULLBACK_TOTAL_CAPITAL", &c.Account.TotalCapital)
	envFloat("PULLBACK_RISK_PER_TRADE_PCT", &c.Account.RiskPerTradePct)
	envFloat("PULLBACK_MAX_DEPLOYED_PCT", &c.Account.MaxDeployedPct)
	envInt("PULLBACK_MAX_OPEN_POSITIONS", &c.Account.MaxOpenPositions)
	envFloat("PULLBACK_DAILY_LOSS_PCT", &c.Account.DailyLossPct)
	envFloat("PULLBACK_WEEKLY_LOSS_PCT", &c.Account.WeeklyLossPct)
	envFloat("PULLBACK_MONTHLY_LOSS_PCT", &c.Account.MonthlyLossPct)
	envFloat("PULLBACK_STOP_BUFFER", &c.Qualify.StopBuffer)
	envInt("PULLBACK_SIM_MAX_DAYS", &c.Sim.MaxDays)
	envFloat("PULLBACK_SIM_MIN_SCORE", &c.Sim.MinScore)
	envInt("PULLBACK_SIM_PARALLELISM", &c.Sim.Parallelism)
}

// Validate rejects configurations the engine must never run with.
// Negative capital is a hard error, never silently corrected.
func (c *Config) Validate() error {
	a := c.Account
	if a.TotalCapital <= 0 {
		return fmt.Errorf("account.total_capital must be positive, got %.2f", a.TotalCapital)
	}
	if a.RiskPerTradePct <= 0 || a.RiskPerTradePct >= 1 {
		return fmt.Errorf("account.risk_per_trade_pct must be in (0,1), got %.4f", a.RiskPerTradePct)
	}
	if a.MaxDeployedPct < 0 || a.MaxDeployedPct > 1 {
		return fmt.Errorf("account.max_deployed_pct must be in [0,1], got %.4f", a.MaxDeployedPct)
	}
	for name, v := range map[string]float64{
		"daily_loss_pct":   a.DailyLossPct,
		"weekly_loss_pct":  a.WeeklyLossPct,
		"monthly_loss_pct": a.MonthlyLossPct,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("account.%s must be in [0,1], got %.4f", name, v)
		}
	}

	q := c.Qualify
	if q.StopBuffer < 0 || q.StopBuffer >= 0.05 {
		return fmt.Errorf("qualify.stop_buffer must be in [0,0.05), got %.4f", q.StopBuffer)
	}
	if q.MinPullbackPct > q.MaxPullbackPct {
		return fmt.Errorf("qualify: min_pullback_pct %.4f above max_pullback_pct %.4f", q.MinPullbackPct, q.MaxPullbackPct)
	}
	if q.MinStopDistPct > q.MaxStopDistPct {
		return fmt.Errorf("qualify: min_stop_dist_pct %.4f above max_stop_dist_pct %.4f", q.MinStopDistPct, q.MaxStopDistPct)
	}

	if c.Sim.MaxDays <= 0 {
		return fmt.Errorf("sim.max_days must be positive, got %d", c.Sim.MaxDays)
	}
	if c.Sim.Parallelism <= 0 {
		return fmt.Errorf("sim.parallelism must be positive, got %d", c.Sim.Parallelism)
	}

	switch c.Journal.Type {
	case "", "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal.trades_file required for csv journal")
		}
	default:
		return fmt.Errorf("journal.type must be sqlite, csv, or none, got %q", c.Journal.Type)
	}

	return nil
}

// SaveToFile writes the configuration, format chosen by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Limits derives the circuit-breaker limits from the account settings.
func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		TotalCapital:    c.Account.TotalCapital,
		DailyLossPct:    c.Account.DailyLossPct,
		WeeklyLossPct:   c.Account.WeeklyLossPct,
		MonthlyLossPct:  c.Account.MonthlyLossPct,
		MaxOpenPosition: c.Account.MaxOpenPositions,
		MaxDeployedPct:  c.Account.MaxDeployedPct,
	}
}

// Sizing derives the baseline sizing inputs for an entry at the given
// entry/stop with the current deployed capital.
func (c *Config) Sizing(entry, stop, deployed float64) risk.SizingInputs {
	return risk.SizingInputs{
		EntryPrice:      entry,
		StopPrice:       stop,
		TotalCapital:    c.Account.TotalCapital,
		RiskPerTradePct: c.Account.RiskPerTradePct,
		CapitalDeployed: deployed,
		MaxDeployedPct:  c.Account.MaxDeployedPct,
		MinStopDistPct:  c.Qualify.MinStopDistPct,
		MaxStopDistPct:  c.Qualify.MaxStopDistPct,
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
