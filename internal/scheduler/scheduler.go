// Package scheduler drives the periodic scan loop: fetch fresh candles,
// run them through each symbol's engine, and fan emitted signals out to
// the notifier and the recorder.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/r464r64r/FractalTrader-sub001/internal/engine"
	"github.com/r464r64r/FractalTrader-sub001/internal/feed"
	"github.com/r464r64r/FractalTrader-sub001/internal/metrics"
	"github.com/r464r64r/FractalTrader-sub001/internal/model"
	"github.com/r464r64r/FractalTrader-sub001/internal/notifier"
	"github.com/r464r64r/FractalTrader-sub001/internal/recorder"
	"github.com/r464r64r/FractalTrader-sub001/internal/risk"
)

// Scheduler manages the cron-driven scan tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Fetcher  feed.Fetcher
	Engines  map[string]*engine.Engine
	Risk     *risk.Manager
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Interval string
	Lookback int
	Ctx      context.Context
	Log      zerolog.Logger
}

// NewScheduler creates a scheduler over the per-symbol engines.
func NewScheduler(ctx context.Context, fetcher feed.Fetcher, engines map[string]*engine.Engine,
	rm *risk.Manager, tn *notifier.TelegramNotifier, rec recorder.Recorder,
	interval string, lookback int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Fetcher:  fetcher,
		Engines:  engines,
		Risk:     rm,
		Notifier: tn,
		Recorder: rec,
		Interval: interval,
		Lookback: lookback,
		Ctx:      ctx,
		Log:      log,
	}
}

// Register wires the scan task onto the cron expression.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanAll); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.Log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scan immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() { s.scanAll() }

func (s *Scheduler) scanAll() {
	for symbol, eng := range s.Engines {
		s.scanSymbol(symbol, eng)
	}
}

func (s *Scheduler) scanSymbol(symbol string, eng *engine.Engine) {
	log := s.Log.With().Str("symbol", symbol).Logger()

	bars, err := s.Fetcher.FetchBars(s.Ctx, symbol, s.Interval, s.Lookback)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(symbol).Inc()
		log.Error().Err(err).Msg("fetch bars")
		return
	}

	// Only bars newer than what the engine has seen; the fetch window
	// overlaps the previous scan on purpose so nothing is skipped.
	history := eng.Bars()
	fresh := bars
	if n := len(history); n > 0 {
		last := history[n-1].Time
		cut := len(bars)
		for i, b := range bars {
			if b.Time.After(last) {
				cut = i
				break
			}
		}
		fresh = bars[cut:]
	}
	if len(fresh) == 0 {
		log.Debug().Msg("no new bars")
		return
	}

	for _, bar := range fresh {
		sigs, err := eng.OnBar(bar)
		if err != nil {
			log.Error().Err(err).Time("bar", bar.Time).Msg("process bar")
			return
		}
		for _, sig := range sigs {
			s.deliver(sig)
		}
	}
	log.Info().Int("bars", len(fresh)).Msg("scan complete")
}

func (s *Scheduler) deliver(sig *model.Signal) {
	if err := s.Recorder.RecordSignal(sig); err != nil {
		s.Log.Error().Err(err).Str("signal", sig.ID).Msg("record signal")
	}
	s.trySend(notifier.FormatSignal(sig))
}

// ConsumeStream feeds closed candles from a live stream into the symbol's
// engine. Meant to replace the cron scan, not run alongside it: the engine
// is not safe for concurrent feeding. Returns when the stream closes.
func (s *Scheduler) ConsumeStream(st *feed.Stream, symbol string) {
	eng, ok := s.Engines[symbol]
	if !ok {
		return
	}
	log := s.Log.With().Str("symbol", symbol).Logger()
	for bar := range st.Bars() {
		sigs, err := eng.OnBar(bar)
		if err != nil {
			// Stale bars overlap the backfill right after connect.
			log.Debug().Err(err).Time("bar", bar.Time).Msg("stream bar rejected")
			continue
		}
		for _, sig := range sigs {
			s.deliver(sig)
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/scan":
		s.RunScanNow()
		return "scan triggered"
	case "/status":
		return notifier.FormatPortfolioStatus(s.Risk.State())
	default:
		return "commands:\n• /scan — run a scan now\n• /status — portfolio state"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Error().Err(err).Msg("send notification")
	}
}
