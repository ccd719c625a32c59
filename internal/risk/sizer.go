// Package risk converts confidence and portfolio state into a position
// size, and persists the portfolio streak state between runs.
package risk

import "math"

// Params are the sizing knobs. Fractions are expressed as 0..1 (0.02 = 2%).
type Params struct {
	MinConfidence       float64 `yaml:"min_confidence"`
	BaseRiskPercent     float64 `yaml:"base_risk_percent"`
	MaxPositionPercent  float64 `yaml:"max_position_percent"`
	WinStreakThreshold  int     `yaml:"win_streak_threshold"`
	WinReductionFactor  float64 `yaml:"win_reduction_factor"`
	LossStreakThreshold int     `yaml:"loss_streak_threshold"`
	LossReductionFactor float64 `yaml:"loss_reduction_factor"`
}

// CalculateSize returns the position size in units, never negative. Every
// degenerate input yields size 0 rather than an error: this sits on the
// trading hot path and a deliberate no-trade beats a crash mid-loop.
func CalculateSize(portfolioValue, entryPrice, stopPrice, confidence, atrCurrent, atrBaseline float64,
	consecutiveWins, consecutiveLosses int, p Params) float64 {

	if confidence < p.MinConfidence || confidence < 0 || confidence > 100 {
		return 0
	}
	if portfolioValue <= 0 || entryPrice <= 0 || stopPrice <= 0 {
		return 0
	}
	if atrCurrent < 0 || consecutiveWins < 0 || consecutiveLosses < 0 {
		return 0
	}
	riskPerUnit := math.Abs(entryPrice - stopPrice)
	if riskPerUnit == 0 {
		return 0
	}

	riskAmount := portfolioValue * p.BaseRiskPercent * (confidence / 100)

	volAdj := 1.0
	if atrCurrent > 0 {
		volAdj = clamp(atrBaseline/atrCurrent, 0.5, 1.5)
	}

	// Win-streak reduction takes priority when both streaks qualify.
	streakAdj := 1.0
	switch {
	case consecutiveWins >= p.WinStreakThreshold:
		streakAdj = p.WinReductionFactor
	case consecutiveLosses >= p.LossStreakThreshold:
		streakAdj = p.LossReductionFactor
	}

	rawSize := (riskAmount * volAdj * streakAdj) / riskPerUnit
	maxSize := (portfolioValue * p.MaxPositionPercent) / entryPrice
	return math.Min(rawSize, maxSize)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
