// Package models defines the market-data records consumed by the analysis
// engine. They are populated by the API client layer (DexScreener, Jupiter,
// Rugcheck) which lives outside this module.
package models

import "time"

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TokenSnapshot is a point-in-time view of a token's market state.
// Historical slices may be empty when an upstream API had no data; the
// analyzers treat missing series as "no signal" rather than an error.
type TokenSnapshot struct {
	TokenAddress        string      `json:"token_address"`
	LiquidityUSD        float64     `json:"liquidity_usd"`
	HistoricalLiquidity []float64   `json:"historical_liquidity,omitempty"`
	PriceHistory        []float64   `json:"price_history,omitempty"`
	VolumeHistory       []float64   `json:"volume_history,omitempty"`
	Timestamps          []time.Time `json:"timestamps,omitempty"`
	Volume24h           float64     `json:"volume_24h"`
	HistoricalVolumes   []float64   `json:"historical_volumes,omitempty"`
	BuyVolume24h        float64     `json:"buy_volume_24h"`
	SellVolume24h       float64     `json:"sell_volume_24h"`
}

// PriceLevel is a single order-book level.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is a snapshot of resting orders, best price first on both sides.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// MarketTrade is a single executed trade as reported by a DEX aggregator.
type MarketTrade struct {
	MakerAddress string    `json:"maker_address"`
	TakerAddress string    `json:"taker_address"`
	Amount       float64   `json:"amount"`
	Side         TradeSide `json:"side"`
	Timestamp    time.Time `json:"timestamp"`
}

// TokenActivity bundles the order book, recent trades and volume history for
// one token. Input to the volume analyzer.
type TokenActivity struct {
	TokenAddress  string        `json:"token_address"`
	OrderBook     OrderBook     `json:"order_book"`
	Trades        []MarketTrade `json:"trades,omitempty"`
	VolumeHistory []float64     `json:"volume_history,omitempty"`
}
