// Package config loads the bot configuration from YAML, applies
// environment overrides and defaults, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks configuration validation failures.
var ErrConfig = errors.New("invalid config")

// Strategy holds the detector and sizing knobs. Percentages are fractions
// (0.02 = 2%).
type Strategy struct {
	SwingWindow         int     `yaml:"swing_window"`
	EqualLevelTolerance float64 `yaml:"equal_level_tolerance"`
	SweepReversalBars   int     `yaml:"sweep_reversal_bars"`
	MinGapPercent       float64 `yaml:"min_gap_percent"`
	MaxZoneAgeBars      int     `yaml:"max_zone_age_bars"`
	PartialFillRatio    float64 `yaml:"partial_fill_ratio"`
	MinImpulsePercent   float64 `yaml:"min_impulse_percent"`
	MinConfidence       float64 `yaml:"min_confidence"`
	ATRPeriod           int     `yaml:"atr_period"`
	SweepMinRR          float64 `yaml:"sweep_min_rr"`
	FVGMinRR            float64 `yaml:"fvg_min_rr"`
	BOSMinRR            float64 `yaml:"bos_min_rr"`

	BaseRiskPercent     float64 `yaml:"base_risk_percent"`
	MaxPositionPercent  float64 `yaml:"max_position_percent"`
	WinStreakThreshold  int     `yaml:"win_streak_threshold"`
	WinReductionFactor  float64 `yaml:"win_reduction_factor"`
	LossStreakThreshold int     `yaml:"loss_streak_threshold"`
	LossReductionFactor float64 `yaml:"loss_reduction_factor"`
}

// Config holds all application configuration.
type Config struct {
	Symbols  []string `yaml:"symbols"`
	Interval string   `yaml:"interval"`
	Lookback int      `yaml:"lookback"`

	Strategy Strategy `yaml:"strategy"`

	Portfolio struct {
		InitialValue float64 `yaml:"initial_value"`
		StateFile    string  `yaml:"state_file"`
	} `yaml:"portfolio"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Feed struct {
		BaseURL string `yaml:"base_url"`
		WSURL   string `yaml:"ws_url"`
	} `yaml:"feed"`

	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine; env and defaults carry.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORTFOLIO_VALUE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Portfolio.InitialValue = f
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"BTCUSDT"}
	}
	if cfg.Interval == "" {
		cfg.Interval = "1h"
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 500
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "5 0 * * * *" // shortly past every hour close
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "https://api.binance.com"
	}
	if cfg.Feed.WSURL == "" {
		cfg.Feed.WSURL = "wss://stream.binance.com:9443/ws"
	}
	if cfg.Portfolio.InitialValue == 0 {
		cfg.Portfolio.InitialValue = 10000
	}
	if cfg.Portfolio.StateFile == "" {
		cfg.Portfolio.StateFile = "data/portfolio_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fractaltrader.db"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9109"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	s := &cfg.Strategy
	if s.SwingWindow == 0 {
		s.SwingWindow = 5
	}
	if s.EqualLevelTolerance == 0 {
		s.EqualLevelTolerance = 0.001
	}
	if s.SweepReversalBars == 0 {
		s.SweepReversalBars = 3
	}
	if s.MinGapPercent == 0 {
		s.MinGapPercent = 0.001
	}
	if s.MaxZoneAgeBars == 0 {
		s.MaxZoneAgeBars = 50
	}
	if s.PartialFillRatio == 0 {
		s.PartialFillRatio = 0.5
	}
	if s.MinImpulsePercent == 0 {
		s.MinImpulsePercent = 0.01
	}
	if s.MinConfidence == 0 {
		s.MinConfidence = 40
	}
	if s.ATRPeriod == 0 {
		s.ATRPeriod = 14
	}
	if s.SweepMinRR == 0 {
		s.SweepMinRR = 1.5
	}
	if s.FVGMinRR == 0 {
		s.FVGMinRR = 1.5
	}
	if s.BOSMinRR == 0 {
		s.BOSMinRR = 2.0
	}
	if s.BaseRiskPercent == 0 {
		s.BaseRiskPercent = 0.02
	}
	if s.MaxPositionPercent == 0 {
		s.MaxPositionPercent = 0.05
	}
	if s.WinStreakThreshold == 0 {
		s.WinStreakThreshold = 3
	}
	if s.WinReductionFactor == 0 {
		s.WinReductionFactor = 0.5
	}
	if s.LossStreakThreshold == 0 {
		s.LossStreakThreshold = 2
	}
	if s.LossReductionFactor == 0 {
		s.LossReductionFactor = 0.5
	}
}

// Validate fails fast on values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	s := c.Strategy
	switch {
	case s.SwingWindow < 1:
		return fmt.Errorf("%w: swing_window must be >= 1", ErrConfig)
	case s.EqualLevelTolerance < 0:
		return fmt.Errorf("%w: equal_level_tolerance must be non-negative", ErrConfig)
	case s.SweepReversalBars < 1:
		return fmt.Errorf("%w: sweep_reversal_bars must be >= 1", ErrConfig)
	case s.MinGapPercent < 0:
		return fmt.Errorf("%w: min_gap_percent must be non-negative", ErrConfig)
	case s.MaxZoneAgeBars < 1:
		return fmt.Errorf("%w: max_zone_age_bars must be >= 1", ErrConfig)
	case s.PartialFillRatio <= 0 || s.PartialFillRatio > 1:
		return fmt.Errorf("%w: partial_fill_ratio must be in (0,1]", ErrConfig)
	case s.MinImpulsePercent < 0:
		return fmt.Errorf("%w: min_impulse_percent must be non-negative", ErrConfig)
	case s.MinConfidence < 0 || s.MinConfidence > 100:
		return fmt.Errorf("%w: min_confidence must be in [0,100]", ErrConfig)
	case s.ATRPeriod < 1:
		return fmt.Errorf("%w: atr_period must be >= 1", ErrConfig)
	case s.SweepMinRR <= 0 || s.FVGMinRR <= 0 || s.BOSMinRR <= 0:
		return fmt.Errorf("%w: minimum RR ratios must be positive", ErrConfig)
	case s.BaseRiskPercent < 0 || s.BaseRiskPercent > 1:
		return fmt.Errorf("%w: base_risk_percent must be in [0,1]", ErrConfig)
	case s.MaxPositionPercent < 0 || s.MaxPositionPercent > 1:
		return fmt.Errorf("%w: max_position_percent must be in [0,1]", ErrConfig)
	case s.WinReductionFactor < 0 || s.WinReductionFactor > 1:
		return fmt.Errorf("%w: win_reduction_factor must be in [0,1]", ErrConfig)
	case s.LossReductionFactor < 0 || s.LossReductionFactor > 1:
		return fmt.Errorf("%w: loss_reduction_factor must be in [0,1]", ErrConfig)
	case s.WinStreakThreshold < 1 || s.LossStreakThreshold < 1:
		return fmt.Errorf("%w: streak thresholds must be >= 1", ErrConfig)
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: at least one symbol is required", ErrConfig)
	}
	if c.Portfolio.InitialValue <= 0 {
		return fmt.Errorf("%w: portfolio.initial_value must be positive", ErrConfig)
	}
	return nil
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
