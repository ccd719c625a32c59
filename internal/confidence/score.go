// Package confidence turns the qualitative setup-quality factor bag into a
// 0-100 score. Score is a pure function: no state, no side effects.
package confidence

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

// Factor weights. They sum to 100 with confluence at its cap, so the final
// clamp loses nothing today; it is kept so future factor additions cannot
// push the total out of range.
const (
	pointsHTFTrend       = 15
	pointsHTFStructure   = 15
	pointsPatternClean   = 10
	pointsPerConfluence  = 5
	confluenceCap        = 20
	pointsVolumeSpike    = 10
	pointsVolumeDiverge  = 10
	pointsTrendingMarket = 10
	pointsLowVolatility  = 10
)

// Score aggregates the factors into a per-factor breakdown and clamped total.
func Score(f model.ConfidenceFactors) model.ConfidenceBreakdown {
	points := map[string]int{
		"htf_trend_aligned":   boolPoints(f.HTFTrendAligned, pointsHTFTrend),
		"htf_structure_clean": boolPoints(f.HTFStructureClean, pointsHTFStructure),
		"pattern_clean":       boolPoints(f.PatternClean, pointsPatternClean),
		"confluence":          confluencePoints(f.ConfluenceCount),
		"volume_spike":        boolPoints(f.VolumeSpike, pointsVolumeSpike),
		"volume_divergence":   boolPoints(f.VolumeDivergence, pointsVolumeDiverge),
		"trending_market":     boolPoints(f.TrendingMarket, pointsTrendingMarket),
		"low_volatility":      boolPoints(f.LowVolatility, pointsLowVolatility),
	}

	total := 0
	for _, p := range points {
		total += p
	}
	if total > 100 {
		total = 100
	}
	return model.ConfidenceBreakdown{Points: points, Total: total}
}

func boolPoints(on bool, points int) int {
	if on {
		return points
	}
	return 0
}

func confluencePoints(count int) int {
	if count < 0 {
		count = 0
	}
	p := count * pointsPerConfluence
	if p > confluenceCap {
		return confluenceCap
	}
	return p
}
