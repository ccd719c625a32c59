// Package structure detects swing points, trend, and structure breaks from
// raw bar series. All functions are pure: they read only bars at or before
// the indexes they report on.
package structure

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

// DetectSwingPoints scans bars for swing highs and lows over a symmetric
// window. Bar i is a swing high when high[i] beats every earlier bar in the
// window strictly and every later bar at least weakly; flat tops therefore
// mark only their first bar. Fewer than 2*window+1 bars yields an empty
// result, not an error.
func DetectSwingPoints(bars []model.Bar, window int) []model.SwingPoint {
	if window < 1 || len(bars) < 2*window+1 {
		return nil
	}
	var swings []model.SwingPoint
	for i := window; i < len(bars)-window; i++ {
		if isSwingHigh(bars, i, window) {
			swings = append(swings, model.SwingPoint{
				Index: i, Time: bars[i].Time, Price: bars[i].High, Kind: model.SwingHigh,
			})
		}
		if isSwingLow(bars, i, window) {
			swings = append(swings, model.SwingPoint{
				Index: i, Time: bars[i].Time, Price: bars[i].Low, Kind: model.SwingLow,
			})
		}
	}
	return swings
}

func isSwingHigh(bars []model.Bar, i, window int) bool {
	h := bars[i].High
	for j := i - window; j < i; j++ {
		if bars[j].High >= h {
			return false
		}
	}
	for j := i + 1; j <= i+window; j++ {
		if bars[j].High > h {
			return false
		}
	}
	return true
}

func isSwingLow(bars []model.Bar, i, window int) bool {
	l := bars[i].Low
	for j := i - window; j < i; j++ {
		if bars[j].Low <= l {
			return false
		}
	}
	for j := i + 1; j <= i+window; j++ {
		if bars[j].Low < l {
			return false
		}
	}
	return true
}

// Highs filters swing highs from a mixed swing list.
func Highs(swings []model.SwingPoint) []model.SwingPoint {
	return filter(swings, model.SwingHigh)
}

// Lows filters swing lows from a mixed swing list.
func Lows(swings []model.SwingPoint) []model.SwingPoint {
	return filter(swings, model.SwingLow)
}

func filter(swings []model.SwingPoint, kind model.SwingKind) []model.SwingPoint {
	var out []model.SwingPoint
	for _, s := range swings {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
