package structure

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

// DetectStructureBreaks walks the bar series and reports every close
// through the latest confirmed swing level. A break with the trend is a
// BOS; a break against it is a CHoCH and flips the trend label until the
// swing structure itself re-classifies. Each swing level fires at most
// once, and only swings confirmed strictly before the breaking bar are
// eligible. No prior swing means no break.
func DetectStructureBreaks(bars []model.Bar, swings []model.SwingPoint, window int) []model.StructureBreak {
	if len(swings) == 0 {
		return nil
	}

	var breaks []model.StructureBreak
	broken := make(map[swingKey]bool, len(swings))

	trend := model.TrendRanging
	overrideTrend := model.TrendRanging
	chochBar := -1

	for t := 0; t < len(bars); t++ {
		conf := confirmedBefore(swings, window, t)
		if len(conf) == 0 {
			continue
		}

		trend = ClassifyTrend(conf)
		if chochBar >= 0 {
			if hasSwingConfirmedAfter(conf, window, chochBar) && trend != model.TrendRanging {
				chochBar = -1 // structure caught up, drop the override
			} else {
				trend = overrideTrend
			}
		}

		close := bars[t].Close

		if high := latestUnbroken(Highs(conf), broken); high != nil && close > high.Price {
			kind := model.BOSBull
			if trend == model.TrendDown {
				kind = model.CHoCH
				overrideTrend = model.TrendUp
				chochBar = t
			}
			breaks = append(breaks, model.StructureBreak{
				Index: t, Time: bars[t].Time, Kind: kind,
				Direction: model.Long, BrokenLevel: high.Price,
			})
			broken[swingKey{high.Index, high.Kind}] = true
		}

		if low := latestUnbroken(Lows(conf), broken); low != nil && close < low.Price {
			kind := model.BOSBear
			if trend == model.TrendUp {
				kind = model.CHoCH
				overrideTrend = model.TrendDown
				chochBar = t
			}
			breaks = append(breaks, model.StructureBreak{
				Index: t, Time: bars[t].Time, Kind: kind,
				Direction: model.Short, BrokenLevel: low.Price,
			})
			broken[swingKey{low.Index, low.Kind}] = true
		}
	}
	return breaks
}

type swingKey struct {
	index int
	kind  model.SwingKind
}

// latestUnbroken returns the most recently formed swing not yet consumed by
// a break.
func latestUnbroken(swings []model.SwingPoint, broken map[swingKey]bool) *model.SwingPoint {
	for i := len(swings) - 1; i >= 0; i-- {
		if !broken[swingKey{swings[i].Index, swings[i].Kind}] {
			s := swings[i]
			return &s
		}
	}
	return nil
}

func hasSwingConfirmedAfter(swings []model.SwingPoint, window, bar int) bool {
	for _, s := range swings {
		if s.ConfirmedAt(window) > bar {
			return true
		}
	}
	return false
}
