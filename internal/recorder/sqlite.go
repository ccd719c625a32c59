package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// SQLiteRecorder persists signals and detector events to SQLite.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			bar_time    INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			strategy    TEXT NOT NULL,
			direction   TEXT NOT NULL,
			entry_price REAL,
			stop_loss   REAL,
			take_profit REAL,
			confidence  REAL,
			metadata    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol)`,

		`CREATE TABLE IF NOT EXISTS sweep_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			bar_time      INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			direction     TEXT NOT NULL,
			level_price   REAL,
			wick_extreme  REAL,
			reversal_bars INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sweeps_ts ON sweep_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS zone_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			bar_time  INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			zone_type TEXT NOT NULL,
			event     TEXT NOT NULL,
			direction TEXT NOT NULL,
			high      REAL,
			low       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zones_ts ON zone_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, err := json.Marshal(sig.Metadata)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = r.db.Exec(`INSERT INTO signals
		(id, timestamp, bar_time, symbol, strategy, direction,
		 entry_price, stop_loss, take_profit, confidence, metadata)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sig.ID, time.Now().Unix(), sig.Time.Unix(), sig.Symbol, sig.Strategy,
		sig.Direction.String(), sig.EntryPrice, sig.StopLoss, sig.TakeProfit,
		sig.Confidence, string(meta),
	)
	return err
}

func (r *SQLiteRecorder) RecordSweep(rec *SweepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO sweep_events
		(timestamp, bar_time, symbol, direction, level_price, wick_extreme, reversal_bars)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.BarTime.Unix(), rec.Symbol,
		rec.Direction.String(), rec.LevelPrice, rec.WickExtreme, rec.ReversalBars,
	)
	return err
}

func (r *SQLiteRecorder) RecordZoneEvent(evt *ZoneEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO zone_events
		(timestamp, bar_time, symbol, zone_type, event, direction, high, low)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.BarTime.Unix(), evt.Symbol,
		evt.ZoneType, evt.Event, evt.Direction.String(), evt.High, evt.Low,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
