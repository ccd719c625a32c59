// Package orderblock detects order blocks (the last opposite-direction bar
// before a qualifying impulse) and tracks their retest/invalidation
// lifecycle. The tracker is incremental; batch evaluation replays Update.
package orderblock

import (
	"math"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// Tracker owns the active order block collection for one (symbol,
// timeframe). Not safe for concurrent use.
type Tracker struct {
	minImpulsePercent float64
	maxAgeBars        int

	index int
	bars  []model.Bar

	runStart int // index of the first bar of the current same-direction run
	runDir   int // +1 up, -1 down, 0 none
	runOB    *model.OrderBlock

	active  []*model.OrderBlock
	history []*model.OrderBlock
}

// Events reports lifecycle changes from one Update call.
type Events struct {
	Created     []*model.OrderBlock
	Retested    []*model.OrderBlock
	Invalidated []*model.OrderBlock
	Expired     []*model.OrderBlock
}

// NewTracker builds a tracker. minImpulsePercent is the net relative move a
// same-direction run must achieve for the bar preceding it to qualify as an
// order block.
func NewTracker(minImpulsePercent float64, maxAgeBars int) *Tracker {
	return &Tracker{
		minImpulsePercent: minImpulsePercent,
		maxAgeBars:        maxAgeBars,
		index:             -1,
		runStart:          -1,
	}
}

// Update ingests the next bar.
func (t *Tracker) Update(bar model.Bar) Events {
	t.index++
	t.bars = append(t.bars, bar)
	var ev Events

	t.advanceRun(bar)

	// Lifecycle. Blocks still riding their creating impulse are skipped:
	// the impulse bars are the move away, not a retest.
	remaining := t.active[:0]
	for _, ob := range t.active {
		ob.Age++

		partOfRun := ob == t.runOB
		if !partOfRun {
			if t.decisiveCloseThrough(bar, ob) {
				ob.Invalidated = true
				ev.Invalidated = append(ev.Invalidated, ob)
				t.history = append(t.history, ob)
				continue
			}
			if bar.Low <= ob.High && bar.High >= ob.Low {
				ob.RetestCount++
				ev.Retested = append(ev.Retested, ob)
			}
		} else {
			ob.ImpulseEnd = t.index
		}

		if ob.Age > t.maxAgeBars {
			ev.Expired = append(ev.Expired, ob)
			t.history = append(t.history, ob)
			continue
		}
		remaining = append(remaining, ob)
	}
	t.active = remaining

	if ob := t.qualifyRun(bar); ob != nil {
		t.active = append(t.active, ob)
		ev.Created = append(ev.Created, ob)
	}
	return ev
}

// advanceRun extends or restarts the same-direction run ending at the
// current bar. Dojis break the run.
func (t *Tracker) advanceRun(bar model.Bar) {
	dir := 0
	switch {
	case bar.Close > bar.Open:
		dir = 1
	case bar.Close < bar.Open:
		dir = -1
	}
	if dir == 0 || dir != t.runDir {
		t.runStart = t.index
		t.runDir = dir
		t.runOB = nil
	}
}

// qualifyRun creates an order block once the current run's net move first
// reaches the impulse threshold, provided the bar immediately before the
// run is opposite-direction. At most one block per run.
func (t *Tracker) qualifyRun(bar model.Bar) *model.OrderBlock {
	if t.runDir == 0 || t.runOB != nil || t.runStart < 1 {
		return nil
	}
	base := t.bars[t.runStart].Open
	if base <= 0 {
		return nil
	}
	net := (bar.Close - base) / base
	if math.Abs(net) < t.minImpulsePercent || sign(net) != t.runDir {
		return nil
	}

	prev := t.bars[t.runStart-1]
	prevDir := 0
	switch {
	case prev.Close > prev.Open:
		prevDir = 1
	case prev.Close < prev.Open:
		prevDir = -1
	}
	if prevDir != -t.runDir {
		return nil
	}

	kind := model.Long
	if t.runDir < 0 {
		kind = model.Short
	}
	ob := &model.OrderBlock{
		Index:      t.runStart - 1,
		Time:       prev.Time,
		High:       prev.High,
		Low:        prev.Low,
		Kind:       kind,
		ImpulseEnd: t.index,
	}
	t.runOB = ob
	return ob
}

// decisiveCloseThrough is the invalidation rule: a close beyond the far
// side of the block, not a mere wick.
func (t *Tracker) decisiveCloseThrough(bar model.Bar, ob *model.OrderBlock) bool {
	if ob.Kind == model.Long {
		return bar.Close < ob.Low
	}
	return bar.Close > ob.High
}

// Nearest returns the valid unexpired block on the requested side with the
// smallest absolute distance to price; ties go to the most recently created
// block. Nil when no block qualifies.
func (t *Tracker) Nearest(price float64, direction model.Direction) *model.OrderBlock {
	var best *model.OrderBlock
	for _, ob := range t.active {
		if ob.Kind != direction {
			continue
		}
		if best == nil {
			best = ob
			continue
		}
		d, bd := ob.Distance(price), best.Distance(price)
		if d < bd || (d == bd && ob.Index > best.Index) {
			best = ob
		}
	}
	return best
}

// Active returns the live block collection. Callers must not mutate it.
func (t *Tracker) Active() []*model.OrderBlock { return t.active }

// History returns invalidated and expired blocks in retirement order.
func (t *Tracker) History() []*model.OrderBlock { return t.history }

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
