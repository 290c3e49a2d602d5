package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryLimit bounds the persisted trade history.
const HistoryLimit = 200

// State is the persisted simulation document, written after every simulated
// trade and read at startup to resume.
type State struct {
	StartingLamports int64                `json:"starting_lamports"`
	BalanceLamports  int64                `json:"balance_lamports"`
	Positions        map[string]*Position `json:"positions"`
	Prices           map[string]Price     `json:"prices"`
	History          []TradeEntry         `json:"history"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Position is an open simulated holding.
type Position struct {
	EntryTime     time.Time `json:"entry_time"`
	EntryLamports int64     `json:"entry_lamports"`
	TokenAmount   int64     `json:"token_amount"`
}

// Price is the last observed swap ratio for a mint: Lamports of SOL traded
// against Tokens base units.
type Price struct {
	Lamports int64 `json:"lamports"`
	Tokens   int64 `json:"tokens"`
}

// TradeEntry is one simulated trade in the history.
type TradeEntry struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Mint     string    `json:"mint"`
	Lamports int64     `json:"lamports"`
	Tokens   int64     `json:"tokens"`
}

// NewState creates a fresh simulation state with the given bankroll.
func NewState(startingLamports int64) *State {
	return &State{
		StartingLamports: startingLamports,
		BalanceLamports:  startingLamports,
		Positions:        make(map[string]*Position),
		Prices:           make(map[string]Price),
	}
}

// LoadState reads a persisted state. A missing file returns (nil, nil) so
// the caller can start fresh.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read simulation state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse simulation state: %w", err)
	}
	if s.Positions == nil {
		s.Positions = make(map[string]*Position)
	}
	if s.Prices == nil {
		s.Prices = make(map[string]Price)
	}
	return &s, nil
}

// Save writes the state atomically via a temp file rename.
func (s *State) Save(path string) error {
	s.UpdatedAt = time.Now()
	if len(s.History) > HistoryLimit {
		s.History = s.History[len(s.History)-HistoryLimit:]
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode simulation state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write simulation state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace simulation state: %w", err)
	}
	return nil
}
