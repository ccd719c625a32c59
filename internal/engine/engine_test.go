package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

func testParams() Params {
	return Params{
		SwingWindow:         2,
		EqualLevelTolerance: 0.001,
		SweepReversalBars:   3,
		MinGapPercent:       0.001,
		MaxZoneAgeBars:      50,
		PartialFillRatio:    0.5,
		MinImpulsePercent:   0.01,
		MinConfidence:       0,
		ATRPeriod:           14,
		SweepMinRR:          1.5,
		FVGMinRR:            1.5,
		BOSMinRR:            2.0,
	}
}

func mkBar(i int, open, high, low, close float64) model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Bar{
		Time: start.Add(time.Duration(i) * time.Hour),
		Open: open, High: high, Low: low, Close: close, Volume: 1000,
	}
}

// sweepScenario builds two equal swing lows at 98, then a wick through the
// level at bar 12 with a close back above at bar 13.
func sweepScenario() []model.Bar {
	return []model.Bar{
		mkBar(0, 100, 100.8, 100, 100.4),
		mkBar(1, 100.4, 100.6, 99.5, 100),
		mkBar(2, 100, 100.2, 98, 99.8),
		mkBar(3, 99.8, 100.4, 99.5, 100),
		mkBar(4, 100, 100.9, 100, 100.5),
		mkBar(5, 100.5, 100.7, 99.8, 100.2),
		mkBar(6, 100.2, 100.5, 99.6, 100),
		mkBar(7, 100, 100.1, 98, 99.9),
		mkBar(8, 99.9, 100.3, 99.6, 100),
		mkBar(9, 100, 100.6, 99.8, 100.2),
		mkBar(10, 100.2, 100.4, 99.7, 100),
		mkBar(11, 100, 100.3, 99.7, 100.1),
		mkBar(12, 100.1, 100.2, 95, 97),
		mkBar(13, 97, 99.5, 96.8, 99),
	}
}

func TestReplay_EmitsSweepReversal(t *testing.T) {
	e := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	sigs, err := e.Replay(sweepScenario())
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1 sweep reversal", len(sigs))
	}
	sig := sigs[0]
	if sig.Strategy != "liquidity_sweep_reversal" {
		t.Errorf("strategy = %q", sig.Strategy)
	}
	if sig.Direction != model.Long {
		t.Errorf("direction = %s, want LONG", sig.Direction)
	}
	if sig.EntryPrice != 99 {
		t.Errorf("entry = %v, want the reversal close 99", sig.EntryPrice)
	}
	if sig.StopLoss >= 95 {
		t.Errorf("stop %v must sit below the sweep wick 95", sig.StopLoss)
	}
}

func TestReplay_MatchesIncremental(t *testing.T) {
	bars := sweepScenario()

	batch := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	batchSigs, err := batch.Replay(bars)
	if err != nil {
		t.Fatal(err)
	}

	live := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	var liveSigs []*model.Signal
	for _, bar := range bars {
		sigs, err := live.OnBar(bar)
		if err != nil {
			t.Fatal(err)
		}
		liveSigs = append(liveSigs, sigs...)
	}

	if len(batchSigs) != len(liveSigs) {
		t.Fatalf("batch emitted %d, incremental %d", len(batchSigs), len(liveSigs))
	}
	for i := range batchSigs {
		b, l := batchSigs[i], liveSigs[i]
		if b.Strategy != l.Strategy || b.Direction != l.Direction ||
			b.EntryPrice != l.EntryPrice || b.StopLoss != l.StopLoss ||
			b.TakeProfit != l.TakeProfit || b.Confidence != l.Confidence ||
			!b.Time.Equal(l.Time) {
			t.Errorf("signal %d differs: batch %+v vs live %+v", i, b, l)
		}
	}
}

func TestReplay_SignalsInTimestampOrder(t *testing.T) {
	e := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	sigs, err := e.Replay(sweepScenario())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(sigs); i++ {
		if sigs[i].Time.Before(sigs[i-1].Time) {
			t.Errorf("signal %d out of order: %s before %s", i, sigs[i].Time, sigs[i-1].Time)
		}
	}
}

func TestReplay_ConfidenceFloorSuppresses(t *testing.T) {
	p := testParams()
	p.MinConfidence = 100
	e := New("BTCUSDT", p, nil, zerolog.Nop())
	sigs, err := e.Replay(sweepScenario())
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 0 {
		t.Errorf("floor 100 let %d signals through", len(sigs))
	}
}

func TestReplay_RejectsMalformedSeries(t *testing.T) {
	bars := sweepScenario()
	bars[5].Time = bars[4].Time // duplicate timestamp

	e := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	if _, err := e.Replay(bars); !errors.Is(err, model.ErrInput) {
		t.Errorf("want ErrInput, got %v", err)
	}
}

func TestOnBar_RejectsStaleBar(t *testing.T) {
	e := New("BTCUSDT", testParams(), nil, zerolog.Nop())
	bar := mkBar(0, 100, 101, 99, 100)
	if _, err := e.OnBar(bar); err != nil {
		t.Fatal(err)
	}
	if _, err := e.OnBar(bar); !errors.Is(err, model.ErrInput) {
		t.Errorf("replayed timestamp should be ErrInput, got %v", err)
	}
}

type fixedSizer struct{ size float64 }

func (f fixedSizer) Size(entry, stop, conf, atrCur, atrBase float64) float64 { return f.size }

func TestOnBar_AttachesSize(t *testing.T) {
	e := New("BTCUSDT", testParams(), fixedSizer{size: 42}, zerolog.Nop())
	sigs, err := e.Replay(sweepScenario())
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1", len(sigs))
	}
	if got := sigs[0].Metadata["size"]; got != 42 {
		t.Errorf("size metadata = %v, want 42", got)
	}
}
