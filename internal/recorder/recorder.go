// Package recorder journals emitted signals and detector events for later
// analysis.
package recorder

import (
	"time"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// ZoneEvent is one lifecycle transition of an imbalance zone or order
// block, flattened for storage.
type ZoneEvent struct {
	Symbol    string
	ZoneType  string // "fvg" or "orderblock"
	Event     string // "created", "entered", "retested", "filled", "invalidated", "expired"
	Direction model.Direction
	High      float64
	Low       float64
	BarTime   time.Time
}

// SweepRecord is a liquidity sweep event flattened for storage.
type SweepRecord struct {
	Symbol       string
	Direction    model.Direction
	LevelPrice   float64
	WickExtreme  float64
	ReversalBars int
	BarTime      time.Time
}

// Recorder persists signals and detector events.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	RecordSweep(rec *SweepRecord) error
	RecordZoneEvent(evt *ZoneEvent) error
	Close() error
}
