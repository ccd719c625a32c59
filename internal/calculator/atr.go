// Package calculator holds the indicator math the signal pipeline consumes:
// ATR for volatility scaling and the volume checks feeding confidence.
package calculator

import (
	"errors"
	"math"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// CalculateATR computes the Wilder-smoothed average true range over the
// given period. Requires at least period+1 bars; returns 0 when data is
// insufficient rather than an error, so volatility adjustment degrades to
// neutral on short histories.
func CalculateATR(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, nil
	}

	// Seed with the simple mean of the first `period` true ranges.
	var atr float64
	for i := 1; i <= period; i++ {
		atr += trueRange(bars[i], bars[i-1])
	}
	atr /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1])
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr, nil
}

// CalculateATRBaseline returns the mean of the rolling ATR over the last
// `window` bars, the reference the sizer compares current ATR against.
// Falls back to the current ATR when history is too short for a window.
func CalculateATRBaseline(bars []model.Bar, period, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	current, err := CalculateATR(bars, period)
	if err != nil {
		return 0, err
	}
	if len(bars) < period+window {
		return current, nil
	}

	var sum float64
	for i := 0; i < window; i++ {
		end := len(bars) - i
		atr, err := CalculateATR(bars[:end], period)
		if err != nil {
			return 0, err
		}
		sum += atr
	}
	return sum / float64(window), nil
}

func trueRange(bar, prev model.Bar) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prev.Close)
	lc := math.Abs(bar.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}
