// Package strategy turns the per-bar detector output into trade signals.
// Three variants share one toolkit so their signal construction and RR
// filtering cannot drift apart.
package strategy

import (
	"github.com/r464r64r/FractalTrader-sub001/internal/imbalance"
	"github.com/r464r64r/FractalTrader-sub001/internal/model"
	"github.com/r464r64r/FractalTrader-sub001/internal/orderblock"
)

// Strategy evaluates one bar's worth of detector events. Implementations
// keep their own fired-key state so a zone never signals twice.
type Strategy interface {
	Name() string
	Evaluate(ctx *Context) []*model.Signal
}

// Context is the engine's per-bar snapshot handed to every strategy: the
// bar history up to and including the current bar, the structural read,
// and the events that fired on this bar. Nothing in it reaches past the
// current bar.
type Context struct {
	Symbol string
	Bars   []model.Bar
	Index  int

	Swings      []model.SwingPoint
	SwingWindow int
	Trend       model.Trend

	Breaks []model.StructureBreak // structure breaks confirmed this bar
	Sweeps []model.SweepEvent     // sweep events confirmed this bar
	Zones  imbalance.Events
	Blocks orderblock.Events

	// NearestBlock resolves the closest valid order block on a side.
	NearestBlock func(price float64, dir model.Direction) *model.OrderBlock

	// Regime flags precomputed by the engine.
	VolumeSpike      bool
	VolumeDivergence bool
	TrendingMarket   bool
	LowVolatility    bool
	StructureClean   bool
}

// Bar returns the current bar.
func (c *Context) Bar() model.Bar { return c.Bars[c.Index] }

// Factors assembles the confidence factor bag for a prospective signal.
// patternClean is the one judgment each variant makes for itself.
func (c *Context) Factors(dir model.Direction, patternClean bool) model.ConfidenceFactors {
	return model.ConfidenceFactors{
		HTFTrendAligned:   c.trendAligned(dir),
		HTFStructureClean: c.StructureClean,
		PatternClean:      patternClean,
		ConfluenceCount:   c.ConfluenceCount(),
		VolumeSpike:       c.VolumeSpike,
		VolumeDivergence:  c.VolumeDivergence,
		TrendingMarket:    c.TrendingMarket,
		LowVolatility:     c.LowVolatility,
	}
}

// ConfluenceCount counts the distinct event families present on this bar.
// Several detectors agreeing at once is the confluence the score rewards.
func (c *Context) ConfluenceCount() int {
	n := 0
	if len(c.Breaks) > 0 {
		n++
	}
	if len(c.Sweeps) > 0 {
		n++
	}
	if len(c.Zones.Entered) > 0 || len(c.Zones.Created) > 0 {
		n++
	}
	if len(c.Blocks.Retested) > 0 || len(c.Blocks.Created) > 0 {
		n++
	}
	return n
}

func (c *Context) trendAligned(dir model.Direction) bool {
	switch c.Trend {
	case model.TrendUp:
		return dir == model.Long
	case model.TrendDown:
		return dir == model.Short
	}
	return false
}
