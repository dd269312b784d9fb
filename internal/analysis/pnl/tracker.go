// Package pnl tracks the bot's buy/sell ledger and computes realized
// profit-and-loss per position.
package pnl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/solsentry/solsentry/internal/alerting"
	"github.com/solsentry/solsentry/pkg/metrics"
)

// TransactionType distinguishes ledger entries.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// PositionStatus is the lifecycle state of a TradePosition.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Transaction is one executed trade. Immutable; appended to the ledger's
// flat log in arrival order.
type Transaction struct {
	TokenAddress    string          `json:"token_address"`
	TokenSymbol     string          `json:"token_symbol"`
	Type            TransactionType `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PriceUSD        decimal.Decimal `json:"price_usd"`
	Timestamp       time.Time       `json:"timestamp"`
	GasFeeUSD       decimal.Decimal `json:"gas_fee_usd"`
	TransactionHash string          `json:"transaction_hash"`
}

// TradePosition pairs a BUY entry with an optional SELL exit. A position is
// CLOSED exactly when Exit is set; it is never reopened.
type TradePosition struct {
	TokenAddress       string           `json:"token_address"`
	TokenSymbol        string           `json:"token_symbol"`
	Entry              *Transaction     `json:"entry_transaction"`
	Exit               *Transaction     `json:"exit_transaction,omitempty"`
	RealizedPnL        *decimal.Decimal `json:"realized_pnl,omitempty"`
	ROIPercentage      *decimal.Decimal `json:"roi_percentage,omitempty"`
	HoldingPeriodHours *float64         `json:"holding_period_hours,omitempty"`
	Status             PositionStatus   `json:"status"`
}

// PerformanceSummary aggregates the closed-trade statistics.
type PerformanceSummary struct {
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	TotalTrades        int             `json:"total_trades"`
	WinningTrades      int             `json:"winning_trades"`
	WinRate            float64         `json:"win_rate"`
	AveragePnLPerTrade decimal.Decimal `json:"average_pnl_per_trade"`
}

// Tracker owns the transaction log and the per-token position stacks.
// A SELL closes the oldest OPEN position for its token (FIFO). All state
// mutations are serialized by one mutex so concurrent BUY/SELL streams
// cannot corrupt the matching order.
type Tracker struct {
	mu       sync.Mutex
	logger   *zap.SugaredLogger
	notifier alerting.Notifier

	transactions []*Transaction
	positions    map[string][]*TradePosition

	totalRealizedPnL decimal.Decimal
	totalTrades      int
	winningTrades    int

	now func() time.Time
}

// NewTracker creates an empty ledger. A nil notifier disables position
// notifications.
func NewTracker(logger *zap.SugaredLogger, notifier alerting.Notifier) *Tracker {
	if notifier == nil {
		notifier = alerting.NopNotifier{}
	}
	return &Tracker{
		logger:           logger,
		notifier:         notifier,
		positions:        make(map[string][]*TradePosition),
		totalRealizedPnL: decimal.Zero,
		now:              time.Now,
	}
}

// RecordTransaction appends the transaction to the ledger and updates the
// position stacks. A BUY opens a new position; a SELL closes the oldest
// open position for the token, or is dropped with a warning when none
// exists (the raw transaction is still logged).
func (t *Tracker) RecordTransaction(ctx context.Context, tokenAddress, tokenSymbol string,
	txType TransactionType, quantity, priceUSD, gasFeeUSD decimal.Decimal,
	transactionHash string) (*Transaction, error) {

	if txType != TransactionBuy && txType != TransactionSell {
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}

	tx := &Transaction{
		TokenAddress:    tokenAddress,
		TokenSymbol:     tokenSymbol,
		Type:            txType,
		Quantity:        quantity,
		PriceUSD:        priceUSD,
		Timestamp:       t.now(),
		GasFeeUSD:       gasFeeUSD,
		TransactionHash: transactionHash,
	}

	t.mu.Lock()
	t.transactions = append(t.transactions, tx)

	var opened, closed *TradePosition
	switch txType {
	case TransactionBuy:
		opened = &TradePosition{
			TokenAddress: tokenAddress,
			TokenSymbol:  tokenSymbol,
			Entry:        tx,
			Status:       PositionOpen,
		}
		t.positions[tokenAddress] = append(t.positions[tokenAddress], opened)
		metrics.PositionsOpened.Inc()

	case TransactionSell:
		closed = t.closeOldestOpen(tokenAddress, tx)
		if closed == nil {
			t.logger.Warnw("No open position to close", "token", tokenAddress, "tx", transactionHash)
			metrics.UnmatchedSells.Inc()
		}
	}
	t.mu.Unlock()

	if opened != nil {
		t.notifyOpened(ctx, opened)
	}
	if closed != nil {
		metrics.PositionsClosed.Inc()
		t.notifyClosed(ctx, closed)
	}

	return tx, nil
}

// closeOldestOpen matches the exit against the oldest OPEN position for
// the token, computes realized P&L and updates the aggregate counters.
// Returns nil when no position is open. Caller holds the lock.
func (t *Tracker) closeOldestOpen(tokenAddress string, exit *Transaction) *TradePosition {
	var position *TradePosition
	for _, p := range t.positions[tokenAddress] {
		if p.Status == PositionOpen {
			position = p
			break
		}
	}
	if position == nil {
		return nil
	}

	entryCost := position.Entry.Quantity.Mul(position.Entry.PriceUSD)
	exitValue := exit.Quantity.Mul(exit.PriceUSD)
	totalGas := position.Entry.GasFeeUSD.Add(exit.GasFeeUSD)

	realizedPnL := exitValue.Sub(entryCost).Sub(totalGas)
	roi := decimal.Zero
	if !entryCost.IsZero() {
		roi = realizedPnL.Div(entryCost).Mul(decimal.NewFromInt(100))
	}
	holdingHours := exit.Timestamp.Sub(position.Entry.Timestamp).Hours()

	position.Exit = exit
	position.Status = PositionClosed
	position.RealizedPnL = &realizedPnL
	position.ROIPercentage = &roi
	position.HoldingPeriodHours = &holdingHours

	t.totalRealizedPnL = t.totalRealizedPnL.Add(realizedPnL)
	t.totalTrades++
	if realizedPnL.IsPositive() {
		t.winningTrades++
	}

	return position
}

// PerformanceSummary returns the aggregate trading statistics. Safe on an
// empty ledger.
func (t *Tracker) PerformanceSummary() PerformanceSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := PerformanceSummary{
		TotalRealizedPnL:   t.totalRealizedPnL,
		TotalTrades:        t.totalTrades,
		WinningTrades:      t.winningTrades,
		AveragePnLPerTrade: decimal.Zero,
	}

	if t.totalTrades > 0 {
		summary.WinRate = float64(t.winningTrades) / float64(t.totalTrades) * 100
		summary.AveragePnLPerTrade = t.totalRealizedPnL.Div(decimal.NewFromInt(int64(t.totalTrades)))
	}

	return summary
}

// Transactions returns a copy of the flat transaction log, oldest first.
func (t *Tracker) Transactions() []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Transaction, len(t.transactions))
	copy(out, t.transactions)
	return out
}

// Positions returns the position list for a token, oldest first.
func (t *Tracker) Positions(tokenAddress string) []*TradePosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	positions := t.positions[tokenAddress]
	out := make([]*TradePosition, len(positions))
	copy(out, positions)
	return out
}

// OpenPositionCount reports how many positions are currently OPEN across
// all tokens.
func (t *Tracker) OpenPositionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, positions := range t.positions {
		for _, p := range positions {
			if p.Status == PositionOpen {
				count++
			}
		}
	}
	return count
}

func (t *Tracker) notifyOpened(ctx context.Context, p *TradePosition) {
	message := fmt.Sprintf(
		"🔵 New Position Opened\nToken: %s\nEntry Price: $%s\nQuantity: %s\nTotal Value: $%s\nGas Fee: $%s",
		p.TokenSymbol,
		p.Entry.PriceUSD.StringFixed(4),
		p.Entry.Quantity.StringFixed(4),
		p.Entry.Quantity.Mul(p.Entry.PriceUSD).StringFixed(2),
		p.Entry.GasFeeUSD.StringFixed(2),
	)
	if err := t.notifier.Notify(ctx, message); err != nil {
		t.logger.Warnw("Position-opened notification failed", "token", p.TokenSymbol, "error", err)
	}
}

func (t *Tracker) notifyClosed(ctx context.Context, p *TradePosition) {
	emoji := "🔴"
	if p.RealizedPnL.IsPositive() {
		emoji = "🟢"
	}
	message := fmt.Sprintf(
		"%s Position Closed\nToken: %s\nEntry Price: $%s\nExit Price: $%s\nQuantity: %s\nP&L: $%s (%s%%)\nHolding Period: %.1f hours\nGas Fees: $%s",
		emoji,
		p.TokenSymbol,
		p.Entry.PriceUSD.StringFixed(4),
		p.Exit.PriceUSD.StringFixed(4),
		p.Entry.Quantity.StringFixed(4),
		p.RealizedPnL.StringFixed(2),
		p.ROIPercentage.StringFixed(1),
		*p.HoldingPeriodHours,
		p.Entry.GasFeeUSD.Add(p.Exit.GasFeeUSD).StringFixed(2),
	)
	if err := t.notifier.Notify(ctx, message); err != nil {
		t.logger.Warnw("Position-closed notification failed", "token", p.TokenSymbol, "error", err)
	}
}

// FormatPerformanceReport renders the summary as a chat message.
func FormatPerformanceReport(summary PerformanceSummary) string {
	return fmt.Sprintf(
		"📊 Trading Performance Report\nTotal P&L: $%s\nTotal Trades: %d\nWin Rate: %.1f%%\nAverage P&L per Trade: $%s",
		summary.TotalRealizedPnL.StringFixed(2),
		summary.TotalTrades,
		summary.WinRate,
		summary.AveragePnLPerTrade.StringFixed(2),
	)
}
