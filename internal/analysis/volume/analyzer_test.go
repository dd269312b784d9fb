package volume

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/solsentry/solsentry/pkg/models"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return NewAnalyzer(zaptest.NewLogger(t).Sugar(), NewCache())
}

func balancedOrderBook() models.OrderBook {
	return models.OrderBook{
		Bids: []models.PriceLevel{
			{Price: 1.00, Size: 100},
			{Price: 0.99, Size: 100},
			{Price: 0.98, Size: 100},
		},
		Asks: []models.PriceLevel{
			{Price: 1.01, Size: 100},
			{Price: 1.02, Size: 100},
			{Price: 1.03, Size: 100},
		},
	}
}

// organicTrades spreads activity over distinct counterparties so no
// address accumulates enough trades to trip the wash heuristics.
func organicTrades() []models.MarketTrade {
	trades := make([]models.MarketTrade, 0, 4)
	for i := 0; i < 4; i++ {
		side := models.TradeSideBuy
		if i%2 == 1 {
			side = models.TradeSideSell
		}
		trades = append(trades, models.MarketTrade{
			MakerAddress: fmt.Sprintf("maker-%d", i),
			TakerAddress: fmt.Sprintf("taker-%d", i),
			Amount:       100,
			Side:         side,
			Timestamp:    time.Now().Add(time.Duration(i) * time.Minute),
		})
	}
	return trades
}

// roundTripTrades bounces equal volume between two addresses with the
// side flipping every trade.
func roundTripTrades() []models.MarketTrade {
	trades := make([]models.MarketTrade, 0, 6)
	for i := 0; i < 6; i++ {
		side := models.TradeSideBuy
		if i%2 == 1 {
			side = models.TradeSideSell
		}
		trades = append(trades, models.MarketTrade{
			MakerAddress: "wash-a",
			TakerAddress: "wash-b",
			Amount:       100,
			Side:         side,
			Timestamp:    time.Now().Add(time.Duration(i) * time.Second),
		})
	}
	return trades
}

func TestAnalyzeOrderBook(t *testing.T) {
	a := newTestAnalyzer(t)

	t.Run("BalancedBook", func(t *testing.T) {
		m := a.AnalyzeOrderBook(balancedOrderBook())

		assert.InDelta(t, 0.97, m.DepthRatio, 0.01)
		assert.InDelta(t, 0.0099, m.SpreadPercentage, 0.001)
		assert.Zero(t, m.ConcentrationScore)
		assert.False(t, m.WallDetection)
		assert.Less(t, m.ManipulationScore, 0.1)
	})

	t.Run("EmptySideIsMaximallySuspicious", func(t *testing.T) {
		m := a.AnalyzeOrderBook(models.OrderBook{
			Bids: []models.PriceLevel{{Price: 1.0, Size: 100}},
		})
		assert.Equal(t, 1.0, m.ManipulationScore)
		assert.Zero(t, m.DepthRatio)
	})

	t.Run("WallDetection", func(t *testing.T) {
		book := balancedOrderBook()
		book.Bids = nil
		for i := 0; i < 9; i++ {
			book.Bids = append(book.Bids, models.PriceLevel{Price: 1.0 - float64(i)*0.01, Size: 1})
		}
		// One level holding most of the side's size is a wall.
		book.Bids = append(book.Bids, models.PriceLevel{Price: 0.90, Size: 100})

		m := a.AnalyzeOrderBook(book)
		assert.True(t, m.WallDetection)
	})

	t.Run("SingleLevelFullyConcentrated", func(t *testing.T) {
		m := a.AnalyzeOrderBook(models.OrderBook{
			Bids: []models.PriceLevel{{Price: 1.00, Size: 50}},
			Asks: []models.PriceLevel{{Price: 1.01, Size: 50}},
		})
		assert.Equal(t, 1.0, m.ConcentrationScore)
	})
}

func TestConcentration(t *testing.T) {
	assert.Zero(t, concentration(nil))
	assert.Equal(t, 1.0, concentration([]float64{100}))
	assert.Zero(t, concentration([]float64{50, 50, 50, 50}))
	assert.InDelta(t, 0.9216, concentration([]float64{97, 1, 1, 1}), 0.001)
}

func TestManipulationScoreRisesWithConcentration(t *testing.T) {
	low := manipulationScore(1.0, 0, 0.2, false)
	high := manipulationScore(1.0, 0, 0.9, false)
	assert.Less(t, low, high)

	// Walls add a fixed component.
	assert.Greater(t, manipulationScore(1.0, 0, 0.2, true), low)
}

func TestWashTradingScore(t *testing.T) {
	t.Run("EmptyHistoryIsSuspicious", func(t *testing.T) {
		assert.Equal(t, 1.0, washTradingScore(nil))
	})

	t.Run("RoundTripping", func(t *testing.T) {
		score := washTradingScore(roundTripTrades())
		assert.Greater(t, score, 0.7)
	})

	t.Run("OrganicFlow", func(t *testing.T) {
		score := washTradingScore(organicTrades())
		assert.Less(t, score, 0.3)
	})
}

func TestVolumeConsistency(t *testing.T) {
	t.Run("TooShort", func(t *testing.T) {
		assert.Zero(t, volumeConsistency(nil))
		assert.Zero(t, volumeConsistency([]float64{10000}))
	})

	t.Run("SteadyTrend", func(t *testing.T) {
		score := volumeConsistency([]float64{10000, 10200, 10400, 10600, 10800})
		assert.Greater(t, score, 0.9)
	})

	t.Run("Erratic", func(t *testing.T) {
		score := volumeConsistency([]float64{10, 10000, 10, 10000, 10})
		assert.Less(t, score, 0.3)
	})

	t.Run("ZeroMean", func(t *testing.T) {
		// cv blows up on an all-zero series; only the trend term survives.
		score := volumeConsistency([]float64{0, 0, 0})
		assert.InDelta(t, 0.3, score, 1e-9)
	})
}

func TestAnalyzeVolumePatternsOrganic(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis := a.AnalyzeVolumePatterns(models.TokenActivity{
		TokenAddress:  "So1Organic",
		OrderBook:     balancedOrderBook(),
		Trades:        organicTrades(),
		VolumeHistory: []float64{10000, 10200, 10400, 10600, 10800},
	})

	require.NotNil(t, analysis)
	assert.False(t, analysis.Degraded)
	assert.Equal(t, RiskLow, analysis.RiskLevel)
	assert.Greater(t, analysis.VolumeLegitimacyScore, 0.7)
	assert.Empty(t, analysis.SuspiciousPatterns)
}

func TestAnalyzeVolumePatternsWashTraded(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis := a.AnalyzeVolumePatterns(models.TokenActivity{
		TokenAddress:  "So1Washed",
		OrderBook:     models.OrderBook{}, // no liquidity posted at all
		Trades:        roundTripTrades(),
		VolumeHistory: []float64{10, 10000, 10, 10000, 10},
	})

	assert.Equal(t, RiskHigh, analysis.RiskLevel)
	assert.Less(t, analysis.VolumeLegitimacyScore, 0.3)
	assert.Contains(t, analysis.SuspiciousPatterns, NoteWashTrading)
	assert.Contains(t, analysis.SuspiciousPatterns, NoteInconsistentVolume)
}

func TestAnalyzeVolumePatternsNoTradeHistory(t *testing.T) {
	a := newTestAnalyzer(t)

	// A healthy book and steady volume can't fully offset the missing
	// trade history: wash score defaults to 1.0.
	analysis := a.AnalyzeVolumePatterns(models.TokenActivity{
		TokenAddress:  "So1NoTrades",
		OrderBook:     balancedOrderBook(),
		VolumeHistory: []float64{10000, 10200, 10400, 10600, 10800},
	})

	assert.Equal(t, 1.0, analysis.WashTradingScore)
	assert.Equal(t, RiskMedium, analysis.RiskLevel)
	assert.Contains(t, analysis.SuspiciousPatterns, NoteWashTrading)
}

func TestAnalyzeVolumePatternsEmptyActivity(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis := a.AnalyzeVolumePatterns(models.TokenActivity{TokenAddress: "So1Empty"})

	assert.Equal(t, RiskHigh, analysis.RiskLevel)
	assert.Zero(t, analysis.VolumeLegitimacyScore)
}

func TestAnalysisCache(t *testing.T) {
	cache := NewCache()
	a := NewAnalyzer(zaptest.NewLogger(t).Sugar(), cache)

	require.Nil(t, a.CachedAnalysis("So1Cached"))

	analysis := a.AnalyzeVolumePatterns(models.TokenActivity{
		TokenAddress:  "So1Cached",
		OrderBook:     balancedOrderBook(),
		Trades:        organicTrades(),
		VolumeHistory: []float64{10000, 10200, 10400},
	})

	assert.Same(t, analysis, a.CachedAnalysis("So1Cached"))

	cache.Clear()
	assert.Nil(t, a.CachedAnalysis("So1Cached"))
}
