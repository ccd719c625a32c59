package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/r464r64r/FractalTrader-sub001/internal/config"
	"github.com/r464r64r/FractalTrader-sub001/internal/engine"
	"github.com/r464r64r/FractalTrader-sub001/internal/feed"
	"github.com/r464r64r/FractalTrader-sub001/internal/metrics"
	"github.com/r464r64r/FractalTrader-sub001/internal/notifier"
	"github.com/r464r64r/FractalTrader-sub001/internal/recorder"
	"github.com/r464r64r/FractalTrader-sub001/internal/risk"
	"github.com/r464r64r/FractalTrader-sub001/internal/scheduler"
	"github.com/r464r64r/FractalTrader-sub001/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := util.NewLogger("info", true)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := util.NewLogger(cfg.LogLevel, os.Getenv("LOG_JSON") != "true")
	log.Info().Msg("FractalTrader starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Portfolio state feeds streak-aware position sizing.
	rm, err := risk.NewManager(cfg.Portfolio.StateFile, cfg.Portfolio.InitialValue,
		risk.Params{
			MinConfidence:       cfg.Strategy.MinConfidence,
			BaseRiskPercent:     cfg.Strategy.BaseRiskPercent,
			MaxPositionPercent:  cfg.Strategy.MaxPositionPercent,
			WinStreakThreshold:  cfg.Strategy.WinStreakThreshold,
			WinReductionFactor:  cfg.Strategy.WinReductionFactor,
			LossStreakThreshold: cfg.Strategy.LossStreakThreshold,
			LossReductionFactor: cfg.Strategy.LossReductionFactor,
		}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init portfolio manager")
	}

	var fetcher feed.Fetcher
	if os.Getenv("USE_MOCK_FEED") == "true" {
		fetcher = &feed.MockFetcher{}
	} else {
		fetcher = feed.NewBinanceFetcher(cfg.Feed.BaseURL, cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	params := engine.Params{
		SwingWindow:         cfg.Strategy.SwingWindow,
		EqualLevelTolerance: cfg.Strategy.EqualLevelTolerance,
		SweepReversalBars:   cfg.Strategy.SweepReversalBars,
		MinGapPercent:       cfg.Strategy.MinGapPercent,
		MaxZoneAgeBars:      cfg.Strategy.MaxZoneAgeBars,
		PartialFillRatio:    cfg.Strategy.PartialFillRatio,
		MinImpulsePercent:   cfg.Strategy.MinImpulsePercent,
		MinConfidence:       cfg.Strategy.MinConfidence,
		ATRPeriod:           cfg.Strategy.ATRPeriod,
		SweepMinRR:          cfg.Strategy.SweepMinRR,
		FVGMinRR:            cfg.Strategy.FVGMinRR,
		BOSMinRR:            cfg.Strategy.BOSMinRR,
	}
	engines := make(map[string]*engine.Engine, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		eng := engine.New(symbol, params, rm, log)
		eng.Journal = rec
		engines[symbol] = eng
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go metrics.Serve(cfg.Metrics.Addr, log)

	sched := scheduler.NewScheduler(ctx, fetcher, engines, rm, tn, rec,
		cfg.Interval, cfg.Lookback, log)
	if os.Getenv("LIVE_STREAM") == "true" {
		// Backfill once, then follow closed candles over the websocket
		// instead of the cron scan.
		sched.RunScanNow()
		for _, symbol := range cfg.Symbols {
			st := feed.NewStream(cfg.Feed.WSURL, symbol, cfg.Interval, log)
			go st.Run(ctx)
			go sched.ConsumeStream(st, symbol)
		}
		log.Info().Msg("live kline streams started")
	} else {
		if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
			log.Fatal().Err(err).Msg("register cron tasks")
		}
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Telegram.BotToken != "" {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" && os.Getenv("LIVE_STREAM") != "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go sched.RunScanNow()
	}

	log.Info().Strs("symbols", cfg.Symbols).Str("interval", cfg.Interval).
		Msg("FractalTrader is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	log.Info().Msg("FractalTrader stopped")
}
