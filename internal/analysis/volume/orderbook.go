// Package volume scores the legitimacy of a token's trading volume from an
// order-book snapshot, a recent trade list and a volume history.
package volume

import (
	"github.com/solsentry/solsentry/pkg/models"
)

// OrderBookMetrics are derived from a single order-book snapshot.
type OrderBookMetrics struct {
	DepthRatio         float64 `json:"depth_ratio"`
	SpreadPercentage   float64 `json:"spread_percentage"`
	ConcentrationScore float64 `json:"concentration_score"`
	WallDetection      bool    `json:"wall_detection"`
	ManipulationScore  float64 `json:"manipulation_score"`
}

// Weights of the manipulation score components.
const (
	weightDepth         = 0.3
	weightSpread        = 0.2
	weightConcentration = 0.3
	weightWalls         = 0.2

	// A level whose size exceeds this multiple of the side's mean size
	// counts as a wall.
	wallSizeMultiple = 5.0
)

// AnalyzeOrderBook computes depth, spread, concentration and wall metrics
// from one snapshot. An empty side yields the degenerate maximally
// suspicious result (manipulation score 1.0).
func (a *Analyzer) AnalyzeOrderBook(book models.OrderBook) OrderBookMetrics {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return OrderBookMetrics{ManipulationScore: 1.0}
	}

	var buyDepth, sellDepth float64
	for _, bid := range book.Bids {
		buyDepth += bid.Price * bid.Size
	}
	for _, ask := range book.Asks {
		sellDepth += ask.Price * ask.Size
	}

	depthRatio := 0.0
	if sellDepth > 0 {
		depthRatio = buyDepth / sellDepth
	}

	bestBid := book.Bids[0].Price
	bestAsk := book.Asks[0].Price
	spreadPercentage := 0.0
	if bestAsk > 0 {
		spreadPercentage = (bestAsk - bestBid) / bestAsk
	}

	bidSizes := sizes(book.Bids)
	askSizes := sizes(book.Asks)

	wallDetection := maxOf(bidSizes) > mean(bidSizes)*wallSizeMultiple ||
		maxOf(askSizes) > mean(askSizes)*wallSizeMultiple

	concentrationScore := (concentration(bidSizes) + concentration(askSizes)) / 2

	return OrderBookMetrics{
		DepthRatio:         depthRatio,
		SpreadPercentage:   spreadPercentage,
		ConcentrationScore: concentrationScore,
		WallDetection:      wallDetection,
		ManipulationScore:  manipulationScore(depthRatio, spreadPercentage, concentrationScore, wallDetection),
	}
}

// concentration computes the Herfindahl-Hirschman Index of the sizes,
// normalized from the uniform baseline 1/n to [0,1]. A single level is
// fully concentrated by definition.
func concentration(sizes []float64) float64 {
	if len(sizes) == 0 {
		return 0.0
	}
	if len(sizes) == 1 {
		return 1.0
	}

	var total float64
	for _, s := range sizes {
		total += s
	}
	if total == 0 {
		return 0.0
	}

	var hhi float64
	for _, s := range sizes {
		share := s / total
		hhi += share * share
	}

	n := float64(len(sizes))
	return clamp01((hhi - 1/n) / (1 - 1/n))
}

// manipulationScore combines the order-book signals into one [0,1] score.
// A depth ratio far from 1, a wide spread, concentrated levels and walls
// all push the score up.
func manipulationScore(depthRatio, spreadPercentage, concentrationScore float64, wallDetection bool) float64 {
	depthScore := 1.0
	if depthRatio > 0 {
		depthScore = abs(1 - depthRatio)
	}

	wallScore := 0.0
	if wallDetection {
		wallScore = 1.0
	}

	score := weightDepth*depthScore +
		weightSpread*min(spreadPercentage*5, 1.0) +
		weightConcentration*concentrationScore +
		weightWalls*wallScore

	return clamp01(score)
}

func sizes(levels []models.PriceLevel) []float64 {
	out := make([]float64, len(levels))
	for i, level := range levels {
		out[i] = level.Size
	}
	return out
}
