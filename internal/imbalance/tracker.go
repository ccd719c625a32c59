// Package imbalance tracks fair value gaps through their full lifecycle:
// creation on a three-bar displacement, retest, fill, and age-out. The
// tracker is incremental; batch evaluation is a replay of Update.
package imbalance

import (
	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// Tracker owns the active zone collection for one (symbol, timeframe).
// It is not safe for concurrent use; each pipeline owns its own instance.
type Tracker struct {
	minGapPercent    float64
	maxAgeBars       int
	partialFillRatio float64

	index   int // index of the last ingested bar, -1 before the first
	prev    [2]model.Bar
	haveTwo bool

	active  []*model.ImbalanceZone
	history []*model.ImbalanceZone
}

// Events reports what changed during one Update call. Entered zones are
// active zones the bar traded into; a zone can appear in both Entered and
// Filled on the same bar.
type Events struct {
	Created []*model.ImbalanceZone
	Entered []*model.ImbalanceZone
	Filled  []*model.ImbalanceZone
	Expired []*model.ImbalanceZone
}

// NewTracker builds a tracker. partialFillRatio is the fraction of zone
// height, measured from the near edge, that price must cross for the zone
// to count as filled (1.0 = full traversal, 0.5 = midpoint).
func NewTracker(minGapPercent float64, maxAgeBars int, partialFillRatio float64) *Tracker {
	return &Tracker{
		minGapPercent:    minGapPercent,
		maxAgeBars:       maxAgeBars,
		partialFillRatio: partialFillRatio,
		index:            -1,
	}
}

// Update ingests the next bar and advances every zone's lifecycle.
func (t *Tracker) Update(bar model.Bar) Events {
	t.index++
	var ev Events

	// Lifecycle of existing zones first: the bar that creates a zone never
	// also retests it, since price just gapped away from it.
	remaining := t.active[:0]
	for _, z := range t.active {
		z.Age++

		if bar.Low <= z.High && bar.High >= z.Low {
			ev.Entered = append(ev.Entered, z)
			if t.crossesFillThreshold(bar, z) {
				z.Filled = true
				z.FillIndex = t.index
				ev.Filled = append(ev.Filled, z)
				t.history = append(t.history, z)
				continue
			}
		}

		if z.Age > t.maxAgeBars {
			ev.Expired = append(ev.Expired, z)
			t.history = append(t.history, z)
			continue
		}
		remaining = append(remaining, z)
	}
	t.active = remaining

	if t.haveTwo {
		if z := t.detect(bar); z != nil {
			t.active = append(t.active, z)
			ev.Created = append(ev.Created, z)
		}
	}

	t.prev[0] = t.prev[1]
	t.prev[1] = bar
	if t.index >= 1 {
		t.haveTwo = true
	}
	return ev
}

// detect checks the triplet ending at the current bar for a gap. Bullish:
// the new bar's low clears the first bar's high. Overlapping gaps are
// tracked independently and never merged.
func (t *Tracker) detect(bar model.Bar) *model.ImbalanceZone {
	first, middle := t.prev[0], t.prev[1]
	if middle.Close <= 0 {
		return nil
	}

	if gap := bar.Low - first.High; gap > 0 && gap/middle.Close >= t.minGapPercent {
		return &model.ImbalanceZone{
			StartIndex:  t.index - 2,
			Time:        bar.Time,
			High:        bar.Low,
			Low:         first.High,
			Kind:        model.Long,
			FillIndex:   -1,
			OriginPrice: bar.High,
		}
	}
	if gap := first.Low - bar.High; gap > 0 && gap/middle.Close >= t.minGapPercent {
		return &model.ImbalanceZone{
			StartIndex:  t.index - 2,
			Time:        bar.Time,
			High:        first.Low,
			Low:         bar.High,
			Kind:        model.Short,
			FillIndex:   -1,
			OriginPrice: bar.Low,
		}
	}
	return nil
}

// crossesFillThreshold applies the configured partial-fill rule: a bullish
// zone fills when price trades down through the threshold measured from its
// top edge, a bearish zone when price trades up through the threshold
// measured from its bottom edge.
func (t *Tracker) crossesFillThreshold(bar model.Bar, z *model.ImbalanceZone) bool {
	depth := (z.High - z.Low) * t.partialFillRatio
	if z.Kind == model.Long {
		return bar.Low <= z.High-depth
	}
	return bar.High >= z.Low+depth
}

// Active returns the live zone collection. Callers must not mutate it.
func (t *Tracker) Active() []*model.ImbalanceZone { return t.active }

// History returns filled and expired zones in retirement order.
func (t *Tracker) History() []*model.ImbalanceZone { return t.history }
