// Package feed supplies market data: a REST fetcher for history and a
// websocket stream for live closed candles.
package feed

import (
	"context"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// Fetcher retrieves historical klines for a symbol.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error)
	Name() string
}
