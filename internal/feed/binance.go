package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// BinanceFetcher pulls klines from the Binance spot REST API.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBinanceFetcher creates a fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BinanceFetcher{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchBars returns up to limit closed candles in chronological order. The
// still-forming candle at the tail is dropped so consumers only ever see
// final OHLCV values.
func (f *BinanceFetcher) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		f.BaseURL, symbol, interval, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch klines: status %d, body: %s", resp.StatusCode, string(body))
	}

	// Klines arrive as mixed-type arrays:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	now := time.Now()
	bars := make([]model.Bar, 0, len(raw))
	for _, k := range raw {
		if len(k) < 7 {
			return nil, fmt.Errorf("decode klines: row has %d fields", len(k))
		}
		bar, closeTime, err := parseKlineRow(k)
		if err != nil {
			return nil, err
		}
		if closeTime.After(now) { // candle still forming
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseKlineRow(k []json.RawMessage) (model.Bar, time.Time, error) {
	var openMs, closeMs int64
	if err := json.Unmarshal(k[0], &openMs); err != nil {
		return model.Bar{}, time.Time{}, fmt.Errorf("decode kline open time: %w", err)
	}
	if err := json.Unmarshal(k[6], &closeMs); err != nil {
		return model.Bar{}, time.Time{}, fmt.Errorf("decode kline close time: %w", err)
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(k[i], &s); err != nil {
			return model.Bar{}, time.Time{}, fmt.Errorf("decode kline field %d: %w", i, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, time.Time{}, fmt.Errorf("parse kline field %d: %w", i, err)
		}
		fields[i-1] = v
	}

	bar := model.Bar{
		Time:   time.UnixMilli(openMs).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}
	return bar, time.UnixMilli(closeMs), nil
}
