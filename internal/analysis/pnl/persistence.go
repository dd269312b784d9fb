package pnl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// ledgerDocument is the on-disk shape of the tracker state. Decimals are
// encoded as quoted strings and timestamps as RFC 3339, so a round-trip
// loses no precision.
type ledgerDocument struct {
	Transactions []*Transaction              `json:"transactions"`
	Positions    map[string][]*TradePosition `json:"positions"`
}

// SaveToFile writes the full ledger state to path, replacing any previous
// contents. I/O errors propagate to the caller.
func (t *Tracker) SaveToFile(path string) error {
	t.mu.Lock()
	doc := ledgerDocument{
		Transactions: t.transactions,
		Positions:    t.positions,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger %s: %w", path, err)
	}
	return nil
}

// LoadFromFile replaces the tracker state with the ledger stored at path.
// Aggregate counters are rebuilt from the closed positions. I/O and decode
// errors propagate to the caller.
func (t *Tracker) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ledger %s: %w", path, err)
	}

	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode ledger %s: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.transactions = doc.Transactions
	t.positions = doc.Positions
	if t.positions == nil {
		t.positions = make(map[string][]*TradePosition)
	}

	t.totalRealizedPnL = decimal.Zero
	t.totalTrades = 0
	t.winningTrades = 0
	for _, positions := range t.positions {
		for _, p := range positions {
			if p.Status != PositionClosed || p.RealizedPnL == nil {
				continue
			}
			t.totalRealizedPnL = t.totalRealizedPnL.Add(*p.RealizedPnL)
			t.totalTrades++
			if p.RealizedPnL.IsPositive() {
				t.winningTrades++
			}
		}
	}

	return nil
}
