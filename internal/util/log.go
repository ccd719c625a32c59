// Package util holds small shared helpers.
package util

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Level accepts zerolog names
// (debug, info, warn, error); anything else falls back to info. Console
// output is human-readable; set plain=false for JSON.
func NewLogger(level string, plain bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stderr)
	if plain {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return out.Level(lvl).With().Timestamp().Logger()
}
