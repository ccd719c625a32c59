// Package engine owns the per-(symbol,timeframe) pipeline: it feeds bars
// through the detectors, hands the per-bar events to the strategies, and
// emits confidence-filtered signals in timestamp order. One engine per
// (symbol, timeframe); not safe for concurrent use, run independent
// instances in parallel instead.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/r464r64r/FractalTrader-sub001/internal/calculator"
	"github.com/r464r64r/FractalTrader-sub001/internal/imbalance"
	"github.com/r464r64r/FractalTrader-sub001/internal/liquidity"
	"github.com/r464r64r/FractalTrader-sub001/internal/metrics"
	"github.com/r464r64r/FractalTrader-sub001/internal/model"
	"github.com/r464r64r/FractalTrader-sub001/internal/orderblock"
	"github.com/r464r64r/FractalTrader-sub001/internal/recorder"
	"github.com/r464r64r/FractalTrader-sub001/internal/strategy"
	"github.com/r464r64r/FractalTrader-sub001/internal/structure"
)

// chochQuietBars is how long after a CHoCH the structure is considered
// unsettled for the confidence factor.
const chochQuietBars = 10

// atrBaselineWindow is the rolling window for the volatility baseline.
const atrBaselineWindow = 20

// Params are the detector and filter knobs, one value set per engine.
type Params struct {
	SwingWindow         int
	EqualLevelTolerance float64
	SweepReversalBars   int
	MinGapPercent       float64
	MaxZoneAgeBars      int
	PartialFillRatio    float64
	MinImpulsePercent   float64
	MinConfidence       float64
	ATRPeriod           int
	SweepMinRR          float64
	FVGMinRR            float64
	BOSMinRR            float64
}

// Sizer supplies position sizes for emitted signals. risk.Manager
// satisfies it; a nil sizer leaves signals unsized.
type Sizer interface {
	Size(entryPrice, stopPrice, confidence, atrCurrent, atrBaseline float64) float64
}

// Engine is the per-symbol pipeline instance.
type Engine struct {
	symbol string
	p      Params
	log    zerolog.Logger
	sizer  Sizer

	// Journal, when set, receives sweep and zone lifecycle events.
	// Signals are journaled by the consumer that delivers them.
	Journal recorder.Recorder

	bars   []model.Bar
	imb    *imbalance.Tracker
	blocks *orderblock.Tracker
	strats []strategy.Strategy

	atrCurrent  float64
	atrBaseline float64
	lastCHoCH   int
}

// New builds an engine with the three stock strategies.
func New(symbol string, p Params, sizer Sizer, log zerolog.Logger) *Engine {
	return &Engine{
		symbol: symbol,
		p:      p,
		log:    log.With().Str("symbol", symbol).Logger(),
		sizer:  sizer,
		imb:    imbalance.NewTracker(p.MinGapPercent, p.MaxZoneAgeBars, p.PartialFillRatio),
		blocks: orderblock.NewTracker(p.MinImpulsePercent, p.MaxZoneAgeBars),
		strats: []strategy.Strategy{
			strategy.NewSweepReversal(p.SweepMinRR),
			strategy.NewFVGFill(p.FVGMinRR),
			strategy.NewBOSOrderBlock(p.BOSMinRR),
		},
		lastCHoCH: -1,
	}
}

// Replay folds the full history through OnBar and returns all signals in
// emission order. The series is validated up front; a malformed series is
// rejected whole.
func (e *Engine) Replay(bars []model.Bar) ([]*model.Signal, error) {
	if err := model.ValidateSeries(bars); err != nil {
		return nil, err
	}
	var out []*model.Signal
	for _, bar := range bars {
		sigs, err := e.OnBar(bar)
		if err != nil {
			return out, err
		}
		out = append(out, sigs...)
	}
	return out, nil
}

// OnBar ingests one bar and returns the signals it produced. Bars must
// arrive in strictly increasing time order.
func (e *Engine) OnBar(bar model.Bar) ([]*model.Signal, error) {
	if err := model.ValidateBar(bar); err != nil {
		return nil, err
	}
	if n := len(e.bars); n > 0 && !bar.Time.After(e.bars[n-1].Time) {
		return nil, fmt.Errorf("%w: bar at %s does not advance past %s",
			model.ErrInput, bar.Time, e.bars[n-1].Time)
	}
	e.bars = append(e.bars, bar)
	cur := len(e.bars) - 1
	metrics.BarsProcessed.WithLabelValues(e.symbol).Inc()

	zoneEvents := e.imb.Update(bar)
	blockEvents := e.blocks.Update(bar)

	swings := structure.DetectSwingPoints(e.bars, e.p.SwingWindow)
	trend := structure.TrendAt(swings, e.p.SwingWindow, cur)

	var newBreaks []model.StructureBreak
	for _, brk := range structure.DetectStructureBreaks(e.bars, swings, e.p.SwingWindow) {
		if brk.Index != cur {
			continue
		}
		newBreaks = append(newBreaks, brk)
		if brk.Kind == model.CHoCH {
			e.lastCHoCH = brk.Index
		}
		metrics.StructureBreaks.WithLabelValues(e.symbol, string(brk.Kind)).Inc()
	}

	levels := liquidity.FindEqualLevels(swings, e.p.EqualLevelTolerance, e.p.SwingWindow)
	var newSweeps []model.SweepEvent
	for _, ev := range liquidity.DetectSweeps(e.bars, levels, e.p.SweepReversalBars) {
		if ev.Index != cur {
			continue
		}
		newSweeps = append(newSweeps, ev)
		metrics.SweepEvents.WithLabelValues(e.symbol).Inc()
	}
	e.journalEvents(bar, newSweeps, zoneEvents, blockEvents)

	e.atrCurrent, _ = calculator.CalculateATR(e.bars, e.p.ATRPeriod)
	e.atrBaseline, _ = calculator.CalculateATRBaseline(e.bars, e.p.ATRPeriod, atrBaselineWindow)

	ctx := &strategy.Context{
		Symbol:       e.symbol,
		Bars:         e.bars,
		Index:        cur,
		Swings:       swings,
		SwingWindow:  e.p.SwingWindow,
		Trend:        trend,
		Breaks:       newBreaks,
		Sweeps:       newSweeps,
		Zones:        zoneEvents,
		Blocks:       blockEvents,
		NearestBlock: e.blocks.Nearest,

		VolumeSpike:      calculator.VolumeSpike(e.bars),
		VolumeDivergence: calculator.VolumeDivergence(e.bars),
		TrendingMarket:   trend != model.TrendRanging,
		LowVolatility:    e.atrCurrent > 0 && e.atrBaseline > 0 && e.atrCurrent < e.atrBaseline,
		StructureClean:   e.lastCHoCH < 0 || cur-e.lastCHoCH > chochQuietBars,
	}

	var out []*model.Signal
	for _, s := range e.strats {
		for _, sig := range s.Evaluate(ctx) {
			if sig.Confidence < e.p.MinConfidence {
				metrics.SignalsSuppressed.WithLabelValues(e.symbol).Inc()
				e.log.Debug().Str("strategy", sig.Strategy).Float64("confidence", sig.Confidence).
					Msg("signal below confidence floor")
				continue
			}
			if e.sizer != nil {
				sig.Metadata["size"] = e.sizer.Size(sig.EntryPrice, sig.StopLoss,
					sig.Confidence, e.atrCurrent, e.atrBaseline)
			}
			metrics.SignalsEmitted.WithLabelValues(e.symbol, sig.Strategy).Inc()
			e.log.Info().
				Str("strategy", sig.Strategy).
				Str("direction", sig.Direction.String()).
				Float64("entry", sig.EntryPrice).
				Float64("stop", sig.StopLoss).
				Float64("target", sig.TakeProfit).
				Float64("confidence", sig.Confidence).
				Msg("signal")
			out = append(out, sig)
		}
	}
	return out, nil
}

func (e *Engine) journalEvents(bar model.Bar, sweeps []model.SweepEvent,
	zones imbalance.Events, blocks orderblock.Events) {
	if e.Journal == nil {
		return
	}
	for _, ev := range sweeps {
		err := e.Journal.RecordSweep(&recorder.SweepRecord{
			Symbol:       e.symbol,
			Direction:    ev.Direction,
			LevelPrice:   ev.Level.Price,
			WickExtreme:  ev.WickExtreme,
			ReversalBars: ev.ReversalBars,
			BarTime:      bar.Time,
		})
		if err != nil {
			e.log.Error().Err(err).Msg("journal sweep")
		}
	}
	zoneKinds := []struct {
		event string
		zs    []*model.ImbalanceZone
	}{
		{"created", zones.Created},
		{"entered", zones.Entered},
		{"filled", zones.Filled},
		{"expired", zones.Expired},
	}
	for _, zk := range zoneKinds {
		for _, z := range zk.zs {
			err := e.Journal.RecordZoneEvent(&recorder.ZoneEvent{
				Symbol: e.symbol, ZoneType: "fvg", Event: zk.event,
				Direction: z.Kind, High: z.High, Low: z.Low, BarTime: bar.Time,
			})
			if err != nil {
				e.log.Error().Err(err).Msg("journal zone event")
			}
		}
	}
	blockKinds := []struct {
		event string
		obs   []*model.OrderBlock
	}{
		{"created", blocks.Created},
		{"retested", blocks.Retested},
		{"invalidated", blocks.Invalidated},
		{"expired", blocks.Expired},
	}
	for _, bk := range blockKinds {
		for _, ob := range bk.obs {
			err := e.Journal.RecordZoneEvent(&recorder.ZoneEvent{
				Symbol: e.symbol, ZoneType: "orderblock", Event: bk.event,
				Direction: ob.Kind, High: ob.High, Low: ob.Low, BarTime: bar.Time,
			})
			if err != nil {
				e.log.Error().Err(err).Msg("journal zone event")
			}
		}
	}
}

// ATR returns the engine's latest volatility read.
func (e *Engine) ATR() (current, baseline float64) { return e.atrCurrent, e.atrBaseline }

// Bars returns the ingested history. Callers must not mutate it.
func (e *Engine) Bars() []model.Bar { return e.bars }
