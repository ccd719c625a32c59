package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInput marks malformed market data rejected at the boundary.
var ErrInput = errors.New("invalid input")

// Bar represents a single candlestick bar. Bars are immutable once ingested.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ValidateSeries checks that a bar sequence is well-formed: non-empty,
// strictly increasing timestamps, and internally consistent OHLC values.
// The series is never reordered or repaired; a bad sequence is rejected whole.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty bar sequence", ErrInput)
	}
	for i, b := range bars {
		if err := ValidateBar(b); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return fmt.Errorf("%w: non-monotonic timestamp at bar %d (%s after %s)",
				ErrInput, i, b.Time, bars[i-1].Time)
		}
	}
	return nil
}

// ValidateBar checks a single bar for missing or inconsistent fields.
func ValidateBar(b Bar) error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInput)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: non-positive price", ErrInput)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.8f below low %.8f", ErrInput, b.High, b.Low)
	}
	if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("%w: open/close outside high-low range", ErrInput)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume", ErrInput)
	}
	return nil
}
