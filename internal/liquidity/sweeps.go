package liquidity

import (
	"sort"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// DetectSweep scans bars for sweeps of a single level. A sweep completes at
// the first bar j where a breach episode that opened at bar i <= j sees a
// close back on the level's original side with j-i within maxReversalBars.
// One event per episode; a breach that never closes back in time emits
// nothing, and no new episode opens until price has closed back on the
// original side again.
func DetectSweep(bars []model.Bar, level model.LiquidityLevel, maxReversalBars int) []model.SweepEvent {
	if maxReversalBars < 0 {
		return nil
	}

	var events []model.SweepEvent

	const (
		idle = iota
		breached
		dead
	)
	state := idle
	breachIdx := 0
	wick := 0.0

	for t := level.FormedIndex; t < len(bars); t++ {
		if t < 0 {
			continue
		}
		b := bars[t]

		switch state {
		case idle:
			if breachesLevel(b, level) {
				state = breached
				breachIdx = t
				wick = wickExtreme(b, level)
				// The breach bar itself may close back across the level.
				if closedBack(b, level) {
					events = append(events, sweepEvent(b, t, breachIdx, level, wick))
					state = idle
				}
			}

		case breached:
			if e := wickExtreme(b, level); moreExtreme(e, wick, level) {
				wick = e
			}
			if closedBack(b, level) {
				if t-breachIdx <= maxReversalBars {
					events = append(events, sweepEvent(b, t, breachIdx, level, wick))
				}
				state = idle
				break
			}
			if t-breachIdx >= maxReversalBars {
				state = dead
			}

		case dead:
			if closedBack(b, level) {
				state = idle
			}
		}
	}
	return events
}

// DetectSweeps runs sweep detection across every level and returns the
// events in bar order.
func DetectSweeps(bars []model.Bar, levels []model.LiquidityLevel, maxReversalBars int) []model.SweepEvent {
	var events []model.SweepEvent
	for _, lv := range levels {
		events = append(events, DetectSweep(bars, lv, maxReversalBars)...)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Index < events[j].Index })
	return events
}

func breachesLevel(b model.Bar, level model.LiquidityLevel) bool {
	if level.Kind == model.SwingLow {
		return b.Low < level.Price
	}
	return b.High > level.Price
}

func closedBack(b model.Bar, level model.LiquidityLevel) bool {
	if level.Kind == model.SwingLow {
		return b.Close > level.Price
	}
	return b.Close < level.Price
}

func wickExtreme(b model.Bar, level model.LiquidityLevel) float64 {
	if level.Kind == model.SwingLow {
		return b.Low
	}
	return b.High
}

func moreExtreme(candidate, current float64, level model.LiquidityLevel) bool {
	if level.Kind == model.SwingLow {
		return candidate < current
	}
	return candidate > current
}

func sweepEvent(b model.Bar, t, breachIdx int, level model.LiquidityLevel, wick float64) model.SweepEvent {
	dir := model.Long
	if level.Kind == model.SwingHigh {
		dir = model.Short
	}
	return model.SweepEvent{
		Index:        t,
		Time:         b.Time,
		Level:        level,
		Direction:    dir,
		BreachIndex:  breachIdx,
		ReversalBars: t - breachIdx,
		WickExtreme:  wick,
	}
}
