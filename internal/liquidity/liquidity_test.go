package liquidity

import (
	"math"
	"testing"
	"time"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

func mkBar(i int, open, high, low, close float64) model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Bar{
		Time: start.Add(time.Duration(i) * time.Hour),
		Open: open, High: high, Low: low, Close: close, Volume: 1000,
	}
}

func sw(i int, p float64, k model.SwingKind) model.SwingPoint {
	return model.SwingPoint{Index: i, Price: p, Kind: k}
}

func TestFindEqualLevels_ClustersWithinTolerance(t *testing.T) {
	swings := []model.SwingPoint{
		sw(5, 100.00, model.SwingLow),
		sw(12, 100.05, model.SwingLow), // within 0.1% of 100
		sw(20, 110.00, model.SwingLow), // far away, alone
		sw(8, 120.00, model.SwingHigh),
		sw(15, 120.10, model.SwingHigh),
	}
	levels := FindEqualLevels(swings, 0.001, 5)

	if len(levels) != 2 {
		t.Fatalf("expected 2 levels (one per side), got %d: %+v", len(levels), levels)
	}
	for _, lv := range levels {
		if len(lv.SwingIndexes) < 2 {
			t.Errorf("level %.2f has %d members, want >= 2", lv.Price, len(lv.SwingIndexes))
		}
		switch lv.Kind {
		case model.SwingLow:
			if math.Abs(lv.Price-100.025) > 1e-9 {
				t.Errorf("low-side level price = %.4f, want mean 100.025", lv.Price)
			}
		case model.SwingHigh:
			if math.Abs(lv.Price-120.05) > 1e-9 {
				t.Errorf("high-side level price = %.4f, want mean 120.05", lv.Price)
			}
		}
	}
}

func TestFindEqualLevels_SingleSwingNoLevel(t *testing.T) {
	swings := []model.SwingPoint{sw(5, 100, model.SwingLow), sw(9, 150, model.SwingLow)}
	if levels := FindEqualLevels(swings, 0.001, 5); len(levels) != 0 {
		t.Errorf("expected no levels from distant swings, got %+v", levels)
	}
}

func TestFindEqualLevels_FormedIndexIsLatestConfirmation(t *testing.T) {
	swings := []model.SwingPoint{
		sw(5, 100.00, model.SwingLow),
		sw(12, 100.05, model.SwingLow),
	}
	levels := FindEqualLevels(swings, 0.001, 5)
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	if levels[0].FormedIndex != 17 {
		t.Errorf("FormedIndex = %d, want 17 (latest swing 12 + window 5)", levels[0].FormedIndex)
	}
}

// Scenario: flat price at 100, two prior equal lows forming a level at 98,
// bar 5 wicks to 95, bar 6 closes back at 99. Exactly one buy-side sweep.
func TestDetectSweep_BreachThenReversal(t *testing.T) {
	level := model.LiquidityLevel{Price: 98, Kind: model.SwingLow, FormedIndex: 0}
	bars := make([]model.Bar, 10)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	bars[5] = mkBar(5, 100, 100, 95, 97)  // wick through 98, closes below
	bars[6] = mkBar(6, 97, 99.5, 96.5, 99) // closes back above the level

	events := DetectSweep(bars, level, 3)
	if len(events) != 1 {
		t.Fatalf("expected exactly one sweep event, got %d: %+v", len(events), events)
	}
	ev := events[0]
	if ev.Direction != model.Long {
		t.Errorf("swept lows should give Long bias, got %s", ev.Direction)
	}
	if ev.Index != 6 || ev.BreachIndex != 5 {
		t.Errorf("event at index %d (breach %d), want completion 6 breach 5", ev.Index, ev.BreachIndex)
	}
	if ev.WickExtreme != 95 {
		t.Errorf("wick extreme = %.2f, want 95", ev.WickExtreme)
	}
	if ev.ReversalBars != 1 {
		t.Errorf("reversal bars = %d, want 1", ev.ReversalBars)
	}
}

func TestDetectSweep_SameBarWickReversal(t *testing.T) {
	level := model.LiquidityLevel{Price: 98, Kind: model.SwingLow, FormedIndex: 0}
	bars := make([]model.Bar, 8)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	bars[4] = mkBar(4, 100, 100, 95, 100) // pure wick, closes back same bar

	events := DetectSweep(bars, level, 3)
	if len(events) != 1 {
		t.Fatalf("expected one sweep from the wick bar, got %d", len(events))
	}
	if events[0].Index != 4 || events[0].ReversalBars != 0 {
		t.Errorf("expected same-bar completion at 4, got %+v", events[0])
	}
}

func TestDetectSweep_BreachWithoutReversalEmitsNothing(t *testing.T) {
	level := model.LiquidityLevel{Price: 98, Kind: model.SwingLow, FormedIndex: 0}
	bars := make([]model.Bar, 10)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	// Breach at 4 and stay below for good.
	for i := 4; i < 10; i++ {
		bars[i] = mkBar(i, 96, 97, 94, 96)
	}
	if events := DetectSweep(bars, level, 3); len(events) != 0 {
		t.Errorf("breach without close-back should emit nothing, got %+v", events)
	}
}

func TestDetectSweep_LateReversalOutsideWindow(t *testing.T) {
	level := model.LiquidityLevel{Price: 98, Kind: model.SwingLow, FormedIndex: 0}
	bars := make([]model.Bar, 12)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	for i := 3; i <= 9; i++ {
		bars[i] = mkBar(i, 96, 97, 94, 96) // below for 7 bars
	}
	// bars[10], bars[11] close back above, but far outside the 3-bar window.
	if events := DetectSweep(bars, level, 3); len(events) != 0 {
		t.Errorf("close-back outside window should emit nothing, got %+v", events)
	}
}

func TestDetectSweep_HighSideSweepIsShort(t *testing.T) {
	level := model.LiquidityLevel{Price: 102, Kind: model.SwingHigh, FormedIndex: 0}
	bars := make([]model.Bar, 8)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	bars[4] = mkBar(4, 100, 104, 99.5, 103) // breach above, closes above
	bars[5] = mkBar(5, 103, 103.5, 100, 101) // closes back below

	events := DetectSweep(bars, level, 3)
	if len(events) != 1 {
		t.Fatalf("expected one sweep, got %d", len(events))
	}
	if events[0].Direction != model.Short {
		t.Errorf("swept highs should give Short bias, got %s", events[0].Direction)
	}
	if events[0].WickExtreme != 104 {
		t.Errorf("wick extreme = %.2f, want 104", events[0].WickExtreme)
	}
}

func TestDetectSweep_TwoEpisodesTwoEvents(t *testing.T) {
	level := model.LiquidityLevel{Price: 98, Kind: model.SwingLow, FormedIndex: 0}
	bars := make([]model.Bar, 14)
	for i := range bars {
		bars[i] = mkBar(i, 100, 100.5, 99.5, 100)
	}
	bars[3] = mkBar(3, 100, 100, 95, 99)  // episode 1: same-bar sweep
	bars[8] = mkBar(8, 100, 100, 96, 97)  // episode 2: breach
	bars[9] = mkBar(9, 97, 100, 96.5, 99) // episode 2: close-back

	events := DetectSweep(bars, level, 3)
	if len(events) != 2 {
		t.Fatalf("expected two sweep events for two episodes, got %d: %+v", len(events), events)
	}
	if events[0].Index != 3 || events[1].Index != 9 {
		t.Errorf("expected completions at bars 3 and 9, got %d and %d", events[0].Index, events[1].Index)
	}
}
