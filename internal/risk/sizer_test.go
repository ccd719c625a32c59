package risk

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func defaultParams() Params {
	return Params{
		MinConfidence:       40,
		BaseRiskPercent:     0.02,
		MaxPositionPercent:  0.05,
		WinStreakThreshold:  3,
		WinReductionFactor:  0.5,
		LossStreakThreshold: 2,
		LossReductionFactor: 0.5,
	}
}

func TestCalculateSize_FullConfidenceNeutralATR(t *testing.T) {
	// 10000 * 2% * 1.0 = 200 risk, 5 per unit -> 40 units raw,
	// capped at 10000 * 5% / 100 = 5 units.
	got := CalculateSize(10000, 100, 95, 100, 5, 5, 0, 0, defaultParams())
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("size = %v, want 5 (max position cap)", got)
	}
}

func TestCalculateSize_BelowMinConfidenceIsZero(t *testing.T) {
	if got := CalculateSize(10000, 100, 95, 30, 5, 5, 0, 0, defaultParams()); got != 0 {
		t.Errorf("confidence 30 sized %v, want 0", got)
	}
}

func TestCalculateSize_GuardClauses(t *testing.T) {
	p := defaultParams()
	tests := []struct {
		name                          string
		value, entry, stop, conf, atr float64
		wins, losses                  int
	}{
		{"zero portfolio", 0, 100, 95, 80, 5, 0, 0},
		{"negative portfolio", -1, 100, 95, 80, 5, 0, 0},
		{"zero entry", 10000, 0, 95, 80, 5, 0, 0},
		{"zero stop", 10000, 100, 0, 80, 5, 0, 0},
		{"stop equals entry", 10000, 100, 100, 80, 5, 0, 0},
		{"confidence over 100", 10000, 100, 95, 101, 5, 0, 0},
		{"negative confidence", 10000, 100, 95, -1, 5, 0, 0},
		{"negative atr", 10000, 100, 95, 80, -1, 0, 0},
		{"negative win streak", 10000, 100, 95, 80, 5, -1, 0},
		{"negative loss streak", 10000, 100, 95, 80, 5, 0, -1},
	}
	for _, tt := range tests {
		if got := CalculateSize(tt.value, tt.entry, tt.stop, tt.conf, tt.atr, 5, tt.wins, tt.losses, p); got != 0 {
			t.Errorf("%s: sized %v, want 0", tt.name, got)
		}
	}
}

func TestCalculateSize_ZeroATRSkipsVolAdjustment(t *testing.T) {
	p := defaultParams()
	// With a wide stop the cap does not bind: 10000 * 2% * 0.5 = 100,
	// 20 per unit -> 5 units; the cap is also 5, so widen further.
	a := CalculateSize(10000, 100, 60, 50, 0, 5, 0, 0, p)
	b := CalculateSize(10000, 100, 60, 50, 5, 5, 0, 0, p) // ratio 1.0
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("zero ATR should behave as neutral volatility: %v vs %v", a, b)
	}
}

func TestCalculateSize_VolatilityClamp(t *testing.T) {
	p := defaultParams()
	base := CalculateSize(100000, 100, 50, 50, 10, 10, 0, 0, p)

	// Very calm market: ratio baseline/current would be 100, clamped to 1.5.
	calm := CalculateSize(100000, 100, 50, 50, 0.1, 10, 0, 0, p)
	if math.Abs(calm-base*1.5) > 1e-9 {
		t.Errorf("calm market size %v, want %v", calm, base*1.5)
	}

	// Very volatile: ratio 0.01, clamped to 0.5.
	wild := CalculateSize(100000, 100, 50, 50, 1000, 10, 0, 0, p)
	if math.Abs(wild-base*0.5) > 1e-9 {
		t.Errorf("volatile market size %v, want %v", wild, base*0.5)
	}
}

func TestCalculateSize_StreakAdjustments(t *testing.T) {
	p := defaultParams()
	base := CalculateSize(100000, 100, 50, 50, 10, 10, 0, 0, p)

	win := CalculateSize(100000, 100, 50, 50, 10, 10, 3, 0, p)
	if math.Abs(win-base*0.5) > 1e-9 {
		t.Errorf("win streak size %v, want %v", win, base*0.5)
	}
	loss := CalculateSize(100000, 100, 50, 50, 10, 10, 0, 2, p)
	if math.Abs(loss-base*0.5) > 1e-9 {
		t.Errorf("loss streak size %v, want %v", loss, base*0.5)
	}

	// Below threshold: no adjustment.
	if got := CalculateSize(100000, 100, 50, 50, 10, 10, 2, 1, p); math.Abs(got-base) > 1e-9 {
		t.Errorf("sub-threshold streaks size %v, want %v", got, base)
	}
}

func TestCalculateSize_WinStreakTakesPriority(t *testing.T) {
	p := defaultParams()
	p.WinReductionFactor = 0.7
	p.LossReductionFactor = 0.3
	base := CalculateSize(100000, 100, 50, 50, 10, 10, 0, 0, p)

	// Both streaks past threshold: the win factor must apply.
	got := CalculateSize(100000, 100, 50, 50, 10, 10, 5, 5, p)
	if math.Abs(got-base*0.7) > 1e-9 {
		t.Errorf("both streaks active sized %v, want win factor %v", got, base*0.7)
	}
}

func TestCalculateSize_NeverExceedsMaxPosition(t *testing.T) {
	p := defaultParams()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		value := 1000 + rng.Float64()*1e6
		entry := 1 + rng.Float64()*500
		stop := entry * (1 - (0.001 + rng.Float64()*0.2))
		conf := rng.Float64() * 100
		atr := rng.Float64() * 20
		size := CalculateSize(value, entry, stop, conf, atr, 10, rng.Intn(6), rng.Intn(6), p)

		if size < 0 {
			t.Fatalf("negative size %v", size)
		}
		maxSize := value * p.MaxPositionPercent / entry
		if size > maxSize+1e-9 {
			t.Fatalf("size %v exceeds cap %v (value=%v entry=%v)", size, maxSize, value, entry)
		}
	}
}

func TestManager_StreaksResetEachOther(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	m, err := NewManager(path, 10000, defaultParams(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	m.RecordWin(100)
	m.RecordWin(100)
	if st := m.State(); st.ConsecutiveWins != 2 || st.ConsecutiveLosses != 0 {
		t.Errorf("after two wins: %+v", st)
	}
	m.RecordLoss(50)
	if st := m.State(); st.ConsecutiveWins != 0 || st.ConsecutiveLosses != 1 {
		t.Errorf("loss should reset win streak: %+v", st)
	}
	if st := m.State(); math.Abs(st.Value-10150) > 1e-9 {
		t.Errorf("value = %v, want 10150", st.Value)
	}
}

func TestManager_StatePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	m, err := NewManager(path, 10000, defaultParams(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	m.RecordLoss(250)
	m.RecordLoss(250)

	m2, err := NewManager(path, 99999, defaultParams(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	st := m2.State()
	if math.Abs(st.Value-9500) > 1e-9 {
		t.Errorf("reloaded value = %v, want 9500", st.Value)
	}
	if st.ConsecutiveLosses != 2 {
		t.Errorf("reloaded loss streak = %d, want 2", st.ConsecutiveLosses)
	}
}

func TestLoadState_MissingFileIsZeroState(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if st != (PortfolioState{}) {
		t.Errorf("want zero state, got %+v", st)
	}
}
