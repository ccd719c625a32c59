package model

import "time"

// LiquidityLevel is a price where two or more swing extrema cluster within
// tolerance. Price is the mean of the cluster members.
type LiquidityLevel struct {
	Price        float64
	Kind         SwingKind
	SwingIndexes []int
	Tolerance    float64
	// FormedIndex is the bar at which the latest member swing was confirmed;
	// the level does not exist before it.
	FormedIndex int
}

// SweepEvent records a breach of a liquidity level followed by a close back
// on the original side within the reversal window. Direction is the
// post-sweep bias: Long after swept lows, Short after swept highs.
type SweepEvent struct {
	Index        int
	Time         time.Time
	Level        LiquidityLevel
	Direction    Direction
	BreachIndex  int
	ReversalBars int
	// WickExtreme is the furthest price reached during the breach episode.
	WickExtreme float64
}

// ImbalanceZone is a fair value gap left by a three-bar displacement.
// StartIndex is the first bar of the triplet; the zone exists from
// StartIndex+2 onward. Filled is terminal: a filled zone leaves the active
// set and never returns.
type ImbalanceZone struct {
	StartIndex int
	Time       time.Time
	High       float64
	Low        float64
	Kind       Direction
	Filled     bool
	FillIndex  int
	Age        int
	// OriginPrice is the extreme of the displacement bar that created the
	// gap, used as the natural fill-reaction target.
	OriginPrice float64
}

// Contains reports whether price lies inside the zone.
func (z *ImbalanceZone) Contains(price float64) bool {
	return price >= z.Low && price <= z.High
}

// OrderBlock is the last opposite-direction bar before a qualifying
// impulse. RetestCount only ever grows; Invalidated transitions once and
// never reverses.
type OrderBlock struct {
	Index       int
	Time        time.Time
	High        float64
	Low         float64
	Kind        Direction
	Invalidated bool
	RetestCount int
	Age         int
	// ImpulseEnd is the index of the last bar of the impulse run that
	// qualified this block.
	ImpulseEnd int
}

// Contains reports whether price lies inside the block's range.
func (ob *OrderBlock) Contains(price float64) bool {
	return price >= ob.Low && price <= ob.High
}

// Distance returns the absolute distance from price to the block, zero when
// price is inside it.
func (ob *OrderBlock) Distance(price float64) float64 {
	switch {
	case price < ob.Low:
		return ob.Low - price
	case price > ob.High:
		return price - ob.High
	}
	return 0
}
