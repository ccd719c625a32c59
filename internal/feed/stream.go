package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

const (
	readTimeout       = 90 * time.Second
	initialBackoff    = time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 1.8
)

// Stream maintains a websocket kline subscription for one symbol and
// emits closed candles. It reconnects with exponential backoff and keeps
// the connection alive via the server's ping/pong.
type Stream struct {
	wsURL    string
	symbol   string
	interval string
	log      zerolog.Logger
	out      chan model.Bar
}

func NewStream(wsURL, symbol, interval string, log zerolog.Logger) *Stream {
	return &Stream{
		wsURL:    wsURL,
		symbol:   symbol,
		interval: interval,
		log:      log.With().Str("symbol", symbol).Str("stream", "kline").Logger(),
		out:      make(chan model.Bar, 16),
	}
}

// Bars is the closed-candle output channel. Closed when Run returns.
func (s *Stream) Bars() <-chan model.Bar { return s.out }

// Run blocks until ctx is cancelled, reconnecting as needed.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.out)
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Dur("backoff", backoff).Msg("stream disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * backoffMultiplier)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/%s@kline_%s", s.wsURL, strings.ToLower(s.symbol), s.interval)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()
	s.log.Info().Str("endpoint", endpoint).Msg("stream connected")

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		bar, closed, err := parseKlineEvent(msg)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipping malformed kline event")
			continue
		}
		if !closed {
			continue
		}
		select {
		case s.out <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type klineEvent struct {
	Event string `json:"e"`
	// EventTime must be declared so the numeric "E" key does not bind to
	// "e" via encoding/json's case-insensitive fallback.
	EventTime int64 `json:"E"`
	Kline     struct {
		OpenTime int64 `json:"t"`
		// CloseTime likewise keeps "T" from overwriting "t".
		CloseTime int64  `json:"T"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Final     bool   `json:"x"`
	} `json:"k"`
}

// parseKlineEvent decodes one stream message; closed reports whether the
// candle is final.
func parseKlineEvent(msg []byte) (model.Bar, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return model.Bar{}, false, fmt.Errorf("decode kline event: %w", err)
	}
	if ev.Event != "kline" {
		return model.Bar{}, false, nil
	}

	vals := make([]float64, 5)
	for i, s := range []string{ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, false, fmt.Errorf("parse kline price: %w", err)
		}
		vals[i] = v
	}
	bar := model.Bar{
		Time:   time.UnixMilli(ev.Kline.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}
	return bar, ev.Kline.Final, nil
}
