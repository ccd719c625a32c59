// Package liquidity clusters swing extrema into equal-level zones and
// detects sweeps of those zones.
package liquidity

import (
	"sort"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
	"github.com/r464r64r/FractalTrader-sub001/internal/structure"
)

// FindEqualLevels clusters swing highs (and separately swing lows) whose
// prices sit within the relative tolerance of each other. A cluster needs
// at least two members; its level price is the member mean. The swing
// window is needed to stamp the bar index at which the level finished
// forming, so sweep detection never reads a level before it existed.
func FindEqualLevels(swings []model.SwingPoint, tolerance float64, window int) []model.LiquidityLevel {
	if tolerance <= 0 {
		return nil
	}
	levels := clusterSide(structure.Highs(swings), model.SwingHigh, tolerance, window)
	levels = append(levels, clusterSide(structure.Lows(swings), model.SwingLow, tolerance, window)...)
	return levels
}

func clusterSide(swings []model.SwingPoint, kind model.SwingKind, tolerance float64, window int) []model.LiquidityLevel {
	if len(swings) < 2 {
		return nil
	}

	byPrice := make([]model.SwingPoint, len(swings))
	copy(byPrice, swings)
	sort.Slice(byPrice, func(i, j int) bool { return byPrice[i].Price < byPrice[j].Price })

	var levels []model.LiquidityLevel
	cluster := []model.SwingPoint{byPrice[0]}
	for _, s := range byPrice[1:] {
		mean := clusterMean(cluster)
		if (s.Price-mean)/mean <= tolerance {
			cluster = append(cluster, s)
			continue
		}
		if lv, ok := buildLevel(cluster, kind, tolerance, window); ok {
			levels = append(levels, lv)
		}
		cluster = []model.SwingPoint{s}
	}
	if lv, ok := buildLevel(cluster, kind, tolerance, window); ok {
		levels = append(levels, lv)
	}
	return levels
}

func clusterMean(cluster []model.SwingPoint) float64 {
	sum := 0.0
	for _, s := range cluster {
		sum += s.Price
	}
	return sum / float64(len(cluster))
}

func buildLevel(cluster []model.SwingPoint, kind model.SwingKind, tolerance float64, window int) (model.LiquidityLevel, bool) {
	if len(cluster) < 2 {
		return model.LiquidityLevel{}, false
	}
	indexes := make([]int, len(cluster))
	formed := 0
	for i, s := range cluster {
		indexes[i] = s.Index
		if c := s.ConfirmedAt(window); c > formed {
			formed = c
		}
	}
	sort.Ints(indexes)
	return model.LiquidityLevel{
		Price:        clusterMean(cluster),
		Kind:         kind,
		SwingIndexes: indexes,
		Tolerance:    tolerance,
		FormedIndex:  formed,
	}, true
}
