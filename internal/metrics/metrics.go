// Package metrics exposes prometheus counters for the signal pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	BarsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_bars_processed_total",
		Help: "Bars ingested per symbol.",
	}, []string{"symbol"})

	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_signals_emitted_total",
		Help: "Signals emitted per symbol and strategy.",
	}, []string{"symbol", "strategy"})

	SignalsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_signals_suppressed_total",
		Help: "Signals dropped by the confidence filter, per symbol.",
	}, []string{"symbol"})

	SweepEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_sweep_events_total",
		Help: "Liquidity sweep events per symbol.",
	}, []string{"symbol"})

	StructureBreaks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_structure_breaks_total",
		Help: "Structure breaks per symbol and kind.",
	}, []string{"symbol", "kind"})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractaltrader_fetch_errors_total",
		Help: "Market data fetch failures per symbol.",
	}, []string{"symbol"})
)

// Serve runs the /metrics endpoint until the listener fails. Intended to be
// launched in its own goroutine.
func Serve(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
