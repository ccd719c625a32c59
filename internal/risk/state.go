package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PortfolioState is the slice of account state the sizer needs, persisted
// as JSON so streak adjustments survive restarts.
type PortfolioState struct {
	Value             float64   `json:"value"`
	ConsecutiveWins   int       `json:"consecutive_wins"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LoadState reads the portfolio state file. A missing file is not an error:
// it returns a zero state so a fresh deployment starts clean.
func LoadState(path string) (PortfolioState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PortfolioState{}, nil
		}
		return PortfolioState{}, fmt.Errorf("read portfolio state: %w", err)
	}
	var st PortfolioState
	if err := json.Unmarshal(data, &st); err != nil {
		return PortfolioState{}, fmt.Errorf("parse portfolio state: %w", err)
	}
	return st, nil
}

// SaveState writes the portfolio state file, stamping UpdatedAt.
func SaveState(path string, st PortfolioState) error {
	st.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write portfolio state: %w", err)
	}
	return nil
}

// Manager guards the portfolio state and sizes positions against it.
type Manager struct {
	mu     sync.Mutex
	path   string
	state  PortfolioState
	params Params
	log    zerolog.Logger
}

// NewManager loads state from path (zero state when absent). An empty path
// disables persistence.
func NewManager(path string, initialValue float64, params Params, log zerolog.Logger) (*Manager, error) {
	m := &Manager{path: path, params: params, log: log}
	if path != "" {
		st, err := LoadState(path)
		if err != nil {
			return nil, err
		}
		m.state = st
	}
	if m.state.Value <= 0 {
		m.state.Value = initialValue
	}
	return m, nil
}

// Size computes the position size for a prospective entry under the current
// portfolio state.
func (m *Manager) Size(entryPrice, stopPrice, confidence, atrCurrent, atrBaseline float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalculateSize(m.state.Value, entryPrice, stopPrice, confidence,
		atrCurrent, atrBaseline, m.state.ConsecutiveWins, m.state.ConsecutiveLosses, m.params)
}

// RecordWin applies a winning trade: pnl added to value, win streak
// extended, loss streak reset.
func (m *Manager) RecordWin(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Value += pnl
	m.state.ConsecutiveWins++
	m.state.ConsecutiveLosses = 0
	m.save()
}

// RecordLoss applies a losing trade; pnl is the loss magnitude.
func (m *Manager) RecordLoss(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Value -= pnl
	m.state.ConsecutiveLosses++
	m.state.ConsecutiveWins = 0
	m.save()
}

// SetValue overrides the portfolio value, e.g. after reconciling with the
// exchange.
func (m *Manager) SetValue(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Value = v
	m.save()
}

// State returns a snapshot of the current portfolio state.
func (m *Manager) State() PortfolioState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) save() {
	if m.path == "" {
		return
	}
	if err := SaveState(m.path, m.state); err != nil {
		m.log.Error().Err(err).Str("path", m.path).Msg("persist portfolio state")
	}
}
