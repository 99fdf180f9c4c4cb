package indicators

import (
	"fmt"

	"github.com/rustyeddy/pullback/market"
)

// Canonical lookbacks. The slope window is how far back the long SMA is
// compared against to judge trend direction.
const (
	SMAShortPeriod = 20
	SMAMidPeriod   = 50
	SMALongPeriod  = 200
	SlopeWindow    = 20
	RSIPeriod      = 14
	ATRPeriod      = 14
	VolumePeriod   = 45
)

// Config tunes the snapshot computation. Zero values fall back to the
// canonical lookbacks.
type Config struct {
	VolumePeriod int `json:"volume_period" yaml:"volume_period"`
}

func (c Config) volumePeriod() int {
	if c.VolumePeriod > 0 {
		return c.VolumePeriod
	}
	return VolumePeriod
}

// Snapshot is the derived indicator set for one (symbol, date). It is
// recomputed on demand and never persisted.
type Snapshot struct {
	SMA20       float64
	SMA50       float64
	SMA200      float64
	SMA200Slope float64 // SMA200 today minus SMA200 twenty bars ago
	RSI14       float64
	ATR14       float64
	ADV45       float64
	VolumeRatio float64 // latest volume / ADV45
}

// MinBars is the shortest series Compute accepts: the long SMA plus the
// slope comparison window.
func MinBars(cfg Config) int {
	n := SMALongPeriod + SlopeWindow
	if v := cfg.volumePeriod(); v > n {
		n = v
	}
	return n
}

// Compute derives a Snapshot from the tail of bars. It returns
// ErrInsufficientData (wrapped) when the series is too short for the long
// SMA slope.
func Compute(bars market.Series, cfg Config) (Snapshot, error) {
	if need := MinBars(cfg); len(bars) < need {
		return Snapshot{}, fmt.Errorf("%w: snapshot needs %d bars, got %d", ErrInsufficientData, need, len(bars))
	}

	var snap Snapshot
	var err error

	if snap.SMA20, err = SMA(bars, SMAShortPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.SMA50, err = SMA(bars, SMAMidPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.SMA200, err = SMA(bars, SMALongPeriod); err != nil {
		return Snapshot{}, err
	}

	past, err := SMA(bars[:len(bars)-SlopeWindow], SMALongPeriod)
	if err != nil {
		return Snapshot{}, err
	}
	snap.SMA200Slope = snap.SMA200 - past

	if snap.RSI14, err = RSI(bars, RSIPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.ATR14, err = ATR(bars, ATRPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.ADV45, err = ADV(bars, cfg.volumePeriod()); err != nil {
		return Snapshot{}, err
	}

	if snap.ADV45 > 0 {
		snap.VolumeRatio = bars.Last().Volume / snap.ADV45
	}

	return snap, nil
}
