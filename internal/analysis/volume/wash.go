package volume

import (
	"github.com/solsentry/solsentry/pkg/models"
)

// Wash-trading heuristics over the trade list grouped by participant
// address. Both the maker and the taker of a trade count as participants.
const (
	// Volume overlap above which an address's buys and sells look circular.
	circularVolumeOverlap = 0.8
	// Minimum trades per address before the circular check applies.
	circularMinTrades = 2
	// Minimum trades per address before the reversal check applies.
	reversalMinTrades = 3

	weightCircular = 0.6
	weightReversal = 0.4
)

// washTradingScore estimates the likelihood that the trade list is
// dominated by round-tripping between colluding counterparties. An empty
// trade list scores 1.0: with no history to prove legitimacy the
// conservative default is maximally suspicious.
func washTradingScore(trades []models.MarketTrade) float64 {
	if len(trades) == 0 {
		return 1.0
	}

	addressTrades := make(map[string][]models.MarketTrade)
	for _, trade := range trades {
		addressTrades[trade.MakerAddress] = append(addressTrades[trade.MakerAddress], trade)
		addressTrades[trade.TakerAddress] = append(addressTrades[trade.TakerAddress], trade)
	}

	var circularCount int
	var maxReversalRatio float64

	for _, addrTrades := range addressTrades {
		if len(addrTrades) > circularMinTrades && isCircular(addrTrades) {
			circularCount++
		}

		if len(addrTrades) > reversalMinTrades {
			if ratio := reversalRatio(addrTrades); ratio > maxReversalRatio {
				maxReversalRatio = ratio
			}
		}
	}

	circularScore := 0.0
	if n := len(addressTrades); n > 0 {
		circularScore = min(1.0, float64(circularCount)/float64(n))
	}

	return clamp01(weightCircular*circularScore + weightReversal*maxReversalRatio)
}

// isCircular reports whether an address's buy and sell volumes overlap
// enough to look like round-trip trading.
func isCircular(trades []models.MarketTrade) bool {
	var buyVolume, sellVolume float64
	for _, trade := range trades {
		switch trade.Side {
		case models.TradeSideBuy:
			buyVolume += trade.Amount
		case models.TradeSideSell:
			sellVolume += trade.Amount
		}
	}

	lo, hi := buyVolume, sellVolume
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return false
	}

	return lo/hi > circularVolumeOverlap
}

// reversalRatio is the fraction of adjacent trades whose side flips.
func reversalRatio(trades []models.MarketTrade) float64 {
	reversals := 0
	for i := 1; i < len(trades); i++ {
		if trades[i].Side != trades[i-1].Side {
			reversals++
		}
	}
	return float64(reversals) / float64(len(trades)-1)
}
