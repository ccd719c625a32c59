package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ConfidenceFactors is the bag of qualitative setup-quality observations
// feeding the scorer. Plain fields, no reflection.
type ConfidenceFactors struct {
	HTFTrendAligned   bool
	HTFStructureClean bool
	PatternClean      bool
	ConfluenceCount   int
	VolumeSpike       bool
	VolumeDivergence  bool
	TrendingMarket    bool
	LowVolatility     bool
}

// ConfidenceBreakdown is the per-factor point attribution plus the clamped total.
type ConfidenceBreakdown struct {
	Points map[string]int
	Total  int
}

// Signal is the final strategy output. Immutable once emitted.
type Signal struct {
	ID         string
	Time       time.Time
	Symbol     string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64
	Strategy   string
	Metadata   map[string]float64
}

// NewSignalID returns a fresh unique signal identifier.
func NewSignalID() string { return uuid.NewString() }

// RiskReward returns target distance over stop distance, or 0 when the
// stop distance is zero.
func (s *Signal) RiskReward() float64 {
	risk := math.Abs(s.EntryPrice - s.StopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(s.TakeProfit-s.EntryPrice) / risk
}
