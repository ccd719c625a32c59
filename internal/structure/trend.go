package structure

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

// ClassifyTrend labels the prevailing structure from the latest swing pair
// on each side: Uptrend when both the latest highs and latest lows are
// non-decreasing, Downtrend when both are non-increasing, otherwise
// Ranging. Fewer than two swings on either side means Ranging.
func ClassifyTrend(swings []model.SwingPoint) model.Trend {
	highs := Highs(swings)
	lows := Lows(swings)
	if len(highs) < 2 || len(lows) < 2 {
		return model.TrendRanging
	}
	h1, h2 := highs[len(highs)-2].Price, highs[len(highs)-1].Price
	l1, l2 := lows[len(lows)-2].Price, lows[len(lows)-1].Price

	switch {
	case h2 >= h1 && l2 >= l1:
		return model.TrendUp
	case h2 <= h1 && l2 <= l1:
		return model.TrendDown
	}
	return model.TrendRanging
}

// TrendAt labels the trend as of bar index t, using only swings confirmed
// at or before t (a swing confirms window bars after its extremum). This is
// the forward-filled per-bar trend the spec of the detectors relies on.
func TrendAt(swings []model.SwingPoint, window, t int) model.Trend {
	return ClassifyTrend(confirmedBy(swings, window, t))
}

// confirmedBy returns the swings whose right-hand window completed at or
// before bar t.
func confirmedBy(swings []model.SwingPoint, window, t int) []model.SwingPoint {
	var out []model.SwingPoint
	for _, s := range swings {
		if s.ConfirmedAt(window) <= t {
			out = append(out, s)
		}
	}
	return out
}

// confirmedBefore returns the swings confirmed strictly before bar t.
// Structure breaks use this stricter cut so a break never consumes a swing
// confirmed on the breaking bar itself.
func confirmedBefore(swings []model.SwingPoint, window, t int) []model.SwingPoint {
	var out []model.SwingPoint
	for _, s := range swings {
		if s.ConfirmedAt(window) < t {
			out = append(out, s)
		}
	}
	return out
}
