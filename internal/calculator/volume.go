package calculator

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

const (
	volumeLookback        = 20
	volumeSpikeMultiplier = 1.2
)

// VolumeSpike reports whether the latest bar's volume exceeds 1.2x the mean
// of the preceding twenty bars. False when history is too short.
func VolumeSpike(bars []model.Bar) bool {
	if len(bars) < volumeLookback+1 {
		return false
	}
	last := len(bars) - 1
	var sum float64
	for i := last - volumeLookback; i < last; i++ {
		sum += bars[i].Volume
	}
	mean := sum / volumeLookback
	if mean <= 0 {
		return false
	}
	return bars[last].Volume > volumeSpikeMultiplier*mean
}

// VolumeDivergence reports whether price pushed to a new extreme over the
// lookback while volume contracted: the recent half of the window averages
// less volume than the earlier half. A fading push is a reversal tell.
func VolumeDivergence(bars []model.Bar) bool {
	if len(bars) < volumeLookback+1 {
		return false
	}
	last := len(bars) - 1
	window := bars[last-volumeLookback : last+1]

	newHigh, newLow := true, true
	for _, b := range window[:volumeLookback] {
		if b.High >= window[volumeLookback].High {
			newHigh = false
		}
		if b.Low <= window[volumeLookback].Low {
			newLow = false
		}
	}
	if !newHigh && !newLow {
		return false
	}

	half := volumeLookback / 2
	var early, late float64
	for i := 0; i < half; i++ {
		early += window[i].Volume
	}
	for i := volumeLookback + 1 - half; i <= volumeLookback; i++ {
		late += window[i].Volume
	}
	return late < early
}
