package strategy

import (
	"math"

	"github.com/r464r64r/FractalTrader-sub001/internal/confidence"
	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// stopBufferPercent pads stops past the wick or zone edge so a retest of
// the exact level does not tag the stop.
const stopBufferPercent = 0.001

// defaultExtensionRR sets the fallback target distance, in multiples of
// the stop distance, when no structural target exists.
const defaultExtensionRR = 2.0

// firedSet tracks (event, zone) keys that already produced a signal.
type firedSet map[string]struct{}

// fire returns true exactly once per key.
func (f firedSet) fire(key string) bool {
	if _, ok := f[key]; ok {
		return false
	}
	f[key] = struct{}{}
	return true
}

func riskReward(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}

// buildSignal assembles a signal for the current bar, scoring confidence
// from the context factors. Returns nil when the RR filter rejects the
// setup or the geometry is degenerate (stop/target on the wrong side).
func buildSignal(ctx *Context, name string, dir model.Direction,
	entry, stop, target float64, patternClean bool, minRR float64) *model.Signal {

	if dir == model.Long && (stop >= entry || target <= entry) {
		return nil
	}
	if dir == model.Short && (stop <= entry || target >= entry) {
		return nil
	}
	rr := riskReward(entry, stop, target)
	if rr+1e-9 < minRR { // tolerance: the 2R fallback lands exactly on the bar
		return nil
	}

	bd := confidence.Score(ctx.Factors(dir, patternClean))
	return &model.Signal{
		ID:         model.NewSignalID(),
		Time:       ctx.Bar().Time,
		Symbol:     ctx.Symbol,
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: float64(bd.Total),
		Strategy:   name,
		Metadata: map[string]float64{
			"rr":         rr,
			"confluence": float64(ctx.ConfluenceCount()),
		},
	}
}

// opposingSwingTarget finds the nearest structural swing on the far side
// of entry: for longs the lowest swing high above, for shorts the highest
// swing low below. Zero when none exists.
func opposingSwingTarget(ctx *Context, dir model.Direction, entry float64) float64 {
	best := 0.0
	for _, s := range ctx.Swings {
		if s.ConfirmedAt(ctx.SwingWindow) > ctx.Index { // not yet confirmed
			continue
		}
		switch dir {
		case model.Long:
			if s.Kind == model.SwingHigh && s.Price > entry && (best == 0 || s.Price < best) {
				best = s.Price
			}
		case model.Short:
			if s.Kind == model.SwingLow && s.Price < entry && (best == 0 || s.Price > best) {
				best = s.Price
			}
		}
	}
	return best
}

// extensionTarget is the fixed fallback: defaultExtensionRR times the stop
// distance beyond entry.
func extensionTarget(dir model.Direction, entry, stop float64) float64 {
	risk := math.Abs(entry - stop)
	if dir == model.Long {
		return entry + defaultExtensionRR*risk
	}
	return entry - defaultExtensionRR*risk
}

func buffered(dir model.Direction, edge float64) float64 {
	if dir == model.Long {
		return edge * (1 - stopBufferPercent)
	}
	return edge * (1 + stopBufferPercent)
}
