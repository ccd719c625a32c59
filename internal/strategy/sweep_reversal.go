package strategy

import (
	"fmt"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// SweepReversal fades liquidity sweeps: a swept low means stops below the
// level were taken and the close back above it argues for a long, and
// symmetrically for swept highs.
type SweepReversal struct {
	minRR float64
	fired firedSet
}

func NewSweepReversal(minRR float64) *SweepReversal {
	return &SweepReversal{minRR: minRR, fired: firedSet{}}
}

func (s *SweepReversal) Name() string { return "liquidity_sweep_reversal" }

func (s *SweepReversal) Evaluate(ctx *Context) []*model.Signal {
	var out []*model.Signal
	bar := ctx.Bar()
	for _, ev := range ctx.Sweeps {
		key := fmt.Sprintf("%d:%s:%.8f", ev.Level.FormedIndex, ev.Level.Kind, ev.Level.Price)
		if !s.fired.fire(key) {
			continue
		}

		entry := bar.Close
		stop := buffered(ev.Direction, ev.WickExtreme)
		target := opposingSwingTarget(ctx, ev.Direction, entry)
		if target == 0 {
			target = extensionTarget(ev.Direction, entry, stop)
		}

		// A reversal that needed only one bar is the textbook shape.
		clean := ev.ReversalBars <= 1
		if sig := buildSignal(ctx, s.Name(), ev.Direction, entry, stop, target, clean, s.minRR); sig != nil {
			sig.Metadata["swept_level"] = ev.Level.Price
			sig.Metadata["wick_extreme"] = ev.WickExtreme
			out = append(out, sig)
		}
	}
	return out
}
