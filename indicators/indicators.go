// Package indicators derives the technical statistics the qualification and
// scoring layers consume. Everything here is a pure function of the bar
// window it is given.
package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/pullback/market"
)

// ErrInsufficientData is returned when a window is shorter than an
// indicator's required lookback. Callers treat it as "not evaluable",
// not as a failure.
var ErrInsufficientData = errors.New("indicators: insufficient data")

// SMA returns the simple moving average of closes over the trailing period.
func SMA(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicators: period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("%w: SMA(%d) needs %d bars, got %d", ErrInsufficientData, period, period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}

// RSI returns the Relative Strength Index over the trailing period
// bar-to-bar changes. RSI is 100 when the window has no losses.
func RSI(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicators: period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: RSI(%d) needs %d bars, got %d", ErrInsufficientData, period, period+1, len(bars))
	}

	gains, losses := 0.0, 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// ATR returns the mean true range over the trailing period bars, where
// true range = max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicators: period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: ATR(%d) needs %d bars, got %d", ErrInsufficientData, period, period+1, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1])
	}
	return sum / float64(period), nil
}

// ADV returns the average volume over the trailing period bars.
func ADV(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicators: period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("%w: ADV(%d) needs %d bars, got %d", ErrInsufficientData, period, period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / float64(period), nil
}

func trueRange(cur, prev market.Bar) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}
