package strategy

import (
	"fmt"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// BOSOrderBlock trades trend continuation: after a structure break, the
// order block that launched the breaking move is expected to hold on the
// pullback. The setup stays pending until the block is retested and is
// discarded if the block is invalidated or expires first. The RR bar is
// stricter than the reversal variants because entries chase an extended
// move.
type BOSOrderBlock struct {
	minRR   float64
	pending map[*model.OrderBlock]pendingBreak
	fired   firedSet
}

type pendingBreak struct {
	breakIndex int
	kind       model.BreakKind
}

func NewBOSOrderBlock(minRR float64) *BOSOrderBlock {
	return &BOSOrderBlock{
		minRR:   minRR,
		pending: map[*model.OrderBlock]pendingBreak{},
		fired:   firedSet{},
	}
}

func (b *BOSOrderBlock) Name() string { return "bos_orderblock" }

func (b *BOSOrderBlock) Evaluate(ctx *Context) []*model.Signal {
	for _, ob := range ctx.Blocks.Invalidated {
		delete(b.pending, ob)
	}
	for _, ob := range ctx.Blocks.Expired {
		delete(b.pending, ob)
	}

	var out []*model.Signal
	bar := ctx.Bar()

	// Retests of already-pending blocks trigger before new breaks arm
	// setups, so a break and a retest on the same bar cannot self-trigger.
	for _, ob := range ctx.Blocks.Retested {
		pb, ok := b.pending[ob]
		if !ok {
			continue
		}
		delete(b.pending, ob)

		key := fmt.Sprintf("%d:%d", pb.breakIndex, ob.Index)
		if !b.fired.fire(key) {
			continue
		}

		dir := ob.Kind
		entry := bar.Close
		var stop float64
		if dir == model.Long {
			stop = buffered(dir, ob.Low)
		} else {
			stop = buffered(dir, ob.High)
		}
		target := opposingSwingTarget(ctx, dir, entry)
		if target == 0 {
			target = extensionTarget(dir, entry, stop)
		}

		clean := ob.RetestCount == 1
		if sig := buildSignal(ctx, b.Name(), dir, entry, stop, target, clean, b.minRR); sig != nil {
			sig.Metadata["block_high"] = ob.High
			sig.Metadata["block_low"] = ob.Low
			sig.Metadata["break_index"] = float64(pb.breakIndex)
			out = append(out, sig)
		}
	}

	if ctx.NearestBlock != nil {
		for _, brk := range ctx.Breaks {
			ob := ctx.NearestBlock(bar.Close, brk.Direction)
			if ob == nil {
				continue
			}
			if _, ok := b.pending[ob]; !ok {
				b.pending[ob] = pendingBreak{breakIndex: brk.Index, kind: brk.Kind}
			}
		}
	}
	return out
}
