package model

import "time"

// Direction is the side of the market a pattern or signal points to.
type Direction int

const (
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return "FLAT"
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction { return -d }

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint is a local price extremum over a symmetric bar window.
// A swing at bar index i is confirmed only once the full right-hand
// window has printed, i.e. at bar i+window.
type SwingPoint struct {
	Index int
	Time  time.Time
	Price float64
	Kind  SwingKind
}

// ConfirmedAt returns the bar index at which this swing became known.
func (s SwingPoint) ConfirmedAt(window int) int { return s.Index + window }

// Trend labels the prevailing market structure.
type Trend string

const (
	TrendUp      Trend = "UPTREND"
	TrendDown    Trend = "DOWNTREND"
	TrendRanging Trend = "RANGING"
)

// BreakKind classifies a structure break.
type BreakKind string

const (
	// BOSBull is a close above the latest swing high with the trend already up.
	BOSBull BreakKind = "BOS_BULL"
	// BOSBear is a close below the latest swing low with the trend already down.
	BOSBear BreakKind = "BOS_BEAR"
	// CHoCH is the first break against the prevailing trend; it flips the trend label.
	CHoCH BreakKind = "CHOCH"
)

// StructureBreak records a close through the latest confirmed swing level.
type StructureBreak struct {
	Index       int
	Time        time.Time
	Kind        BreakKind
	Direction   Direction
	BrokenLevel float64
}
