package confidence

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

func allTrue() model.ConfidenceFactors {
	return model.ConfidenceFactors{
		HTFTrendAligned:   true,
		HTFStructureClean: true,
		PatternClean:      true,
		ConfluenceCount:   4,
		VolumeSpike:       true,
		VolumeDivergence:  true,
		TrendingMarket:    true,
		LowVolatility:     true,
	}
}

func TestScore_AllFalseIsZero(t *testing.T) {
	bd := Score(model.ConfidenceFactors{})
	if bd.Total != 0 {
		t.Errorf("empty factors scored %d, want 0", bd.Total)
	}
}

func TestScore_AllTrueIsExactlyHundred(t *testing.T) {
	bd := Score(allTrue())
	if bd.Total != 100 {
		t.Errorf("all factors on scored %d, want exactly 100", bd.Total)
	}
}

func TestScore_ConfluenceCapped(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{-1, 0}, {0, 0}, {1, 5}, {3, 15}, {4, 20}, {10, 20},
	}
	for _, tt := range tests {
		bd := Score(model.ConfidenceFactors{ConfluenceCount: tt.count})
		if bd.Total != tt.want {
			t.Errorf("confluence %d scored %d, want %d", tt.count, bd.Total, tt.want)
		}
	}
}

func TestScore_IndividualWeights(t *testing.T) {
	tests := []struct {
		name string
		f    model.ConfidenceFactors
		want int
	}{
		{"htf trend", model.ConfidenceFactors{HTFTrendAligned: true}, 15},
		{"htf structure", model.ConfidenceFactors{HTFStructureClean: true}, 15},
		{"pattern", model.ConfidenceFactors{PatternClean: true}, 10},
		{"volume spike", model.ConfidenceFactors{VolumeSpike: true}, 10},
		{"volume divergence", model.ConfidenceFactors{VolumeDivergence: true}, 10},
		{"trending", model.ConfidenceFactors{TrendingMarket: true}, 10},
		{"low volatility", model.ConfidenceFactors{LowVolatility: true}, 10},
	}
	for _, tt := range tests {
		if got := Score(tt.f).Total; got != tt.want {
			t.Errorf("%s: scored %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestScore_PureAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		f := model.ConfidenceFactors{
			HTFTrendAligned:   rng.Intn(2) == 0,
			HTFStructureClean: rng.Intn(2) == 0,
			PatternClean:      rng.Intn(2) == 0,
			ConfluenceCount:   rng.Intn(12) - 2,
			VolumeSpike:       rng.Intn(2) == 0,
			VolumeDivergence:  rng.Intn(2) == 0,
			TrendingMarket:    rng.Intn(2) == 0,
			LowVolatility:     rng.Intn(2) == 0,
		}
		a, b := Score(f), Score(f)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("Score not deterministic for %+v", f)
		}
		if a.Total < 0 || a.Total > 100 {
			t.Fatalf("score %d out of [0,100] for %+v", a.Total, f)
		}
	}
}

func TestScore_BreakdownSumsToTotal(t *testing.T) {
	bd := Score(model.ConfidenceFactors{HTFTrendAligned: true, ConfluenceCount: 2, VolumeSpike: true})
	sum := 0
	for _, p := range bd.Points {
		sum += p
	}
	if sum != bd.Total {
		t.Errorf("breakdown sums to %d but total is %d", sum, bd.Total)
	}
}
