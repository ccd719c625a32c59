package strategy

import (
	"fmt"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// FVGFill trades price returning into an unfilled imbalance: a bullish gap
// acts as support on the first touch, a bearish gap as resistance. The
// target is the origin of the impulse that left the gap.
type FVGFill struct {
	minRR float64
	fired firedSet
}

func NewFVGFill(minRR float64) *FVGFill {
	return &FVGFill{minRR: minRR, fired: firedSet{}}
}

func (f *FVGFill) Name() string { return "fvg_fill" }

func (f *FVGFill) Evaluate(ctx *Context) []*model.Signal {
	var out []*model.Signal
	bar := ctx.Bar()
	for _, z := range ctx.Zones.Entered {
		key := fmt.Sprintf("%d:%s", z.StartIndex, z.Kind)
		if !f.fired.fire(key) {
			continue
		}

		dir := z.Kind
		entry := bar.Close
		var stop float64
		if dir == model.Long {
			stop = buffered(dir, z.Low)
		} else {
			stop = buffered(dir, z.High)
		}

		target := z.OriginPrice
		if (dir == model.Long && target <= entry) || (dir == model.Short && target >= entry) {
			target = extensionTarget(dir, entry, stop)
		}

		// A young zone retains its imbalance; a stale one has leaked edge.
		clean := z.Age <= 10
		if sig := buildSignal(ctx, f.Name(), dir, entry, stop, target, clean, f.minRR); sig != nil {
			sig.Metadata["zone_high"] = z.High
			sig.Metadata["zone_low"] = z.Low
			sig.Metadata["zone_age"] = float64(z.Age)
			out = append(out, sig)
		}
	}
	return out
}
