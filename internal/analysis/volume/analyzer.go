package volume

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solsentry/solsentry/pkg/metrics"
	"github.com/solsentry/solsentry/pkg/models"
)

// RiskLevel buckets a volume analysis verdict.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Suspicious pattern notes attached to an analysis.
const (
	NoteWashTrading        = "High probability of wash trading detected"
	NoteInconsistentVolume = "Highly inconsistent volume patterns"
	NoteAnalysisFailed     = "Analysis failed"
)

// Legitimacy weights and risk tier cutoffs.
const (
	weightWashScore     = 0.4
	weightManipulation  = 0.3
	weightInconsistency = 0.3

	riskCutoffHigh   = 0.3
	riskCutoffMedium = 0.7
)

// VolumeAnalysis is the composite verdict for one token. Cached by token
// address, last write wins.
type VolumeAnalysis struct {
	WashTradingScore      float64   `json:"wash_trading_score"`
	VolumeLegitimacyScore float64   `json:"volume_legitimacy_score"`
	SuspiciousPatterns    []string  `json:"suspicious_patterns"`
	RiskLevel             RiskLevel `json:"risk_level"`
	Timestamp             time.Time `json:"timestamp"`

	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// Cache holds the most recent analysis per token address.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*VolumeAnalysis
}

// NewCache creates an empty analysis cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*VolumeAnalysis)}
}

// Get returns the cached analysis for a token, or nil.
func (c *Cache) Get(tokenAddress string) *VolumeAnalysis {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[tokenAddress]
}

// Put stores the analysis for a token, replacing any previous entry.
func (c *Cache) Put(tokenAddress string, analysis *VolumeAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tokenAddress] = analysis
}

// Clear drops all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*VolumeAnalysis)
}

// Analyzer scores volume legitimacy. Stateless apart from the injected
// result cache.
type Analyzer struct {
	logger *zap.SugaredLogger
	cache  *Cache
}

// NewAnalyzer creates a volume analyzer writing results into the given
// cache.
func NewAnalyzer(logger *zap.SugaredLogger, cache *Cache) *Analyzer {
	return &Analyzer{logger: logger, cache: cache}
}

// AnalyzeVolumePatterns combines the order-book, wash-trading and
// consistency signals into one verdict. It never returns an error: an
// internal failure yields the maximally suspicious fallback.
func (a *Analyzer) AnalyzeVolumePatterns(activity models.TokenActivity) (analysis *VolumeAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorw("Volume analysis failed", "token", activity.TokenAddress, "panic", r)
			analysis = &VolumeAnalysis{
				WashTradingScore:      1.0,
				VolumeLegitimacyScore: 0.0,
				SuspiciousPatterns:    []string{NoteAnalysisFailed},
				RiskLevel:             RiskHigh,
				Timestamp:             time.Now(),
				Degraded:              true,
				DegradedReason:        fmt.Sprintf("%v", r),
			}
			a.cache.Put(activity.TokenAddress, analysis)
			metrics.VolumeAnalyses.WithLabelValues(string(RiskHigh)).Inc()
		}
	}()

	orderMetrics := a.AnalyzeOrderBook(activity.OrderBook)
	washScore := washTradingScore(activity.Trades)
	consistencyScore := volumeConsistency(activity.VolumeHistory)

	var suspiciousPatterns []string
	if washScore > 0.7 {
		suspiciousPatterns = append(suspiciousPatterns, NoteWashTrading)
	}
	if consistencyScore < 0.3 {
		suspiciousPatterns = append(suspiciousPatterns, NoteInconsistentVolume)
	}

	// The raw weighted sum can leave [0,1] when the sub-scores disagree;
	// clamp before tiering so the cutoffs stay meaningful.
	legitimacyScore := clamp01(1.0 - (weightWashScore*washScore +
		weightManipulation*orderMetrics.ManipulationScore +
		weightInconsistency*(1.0-consistencyScore)))

	riskLevel := RiskLow
	switch {
	case legitimacyScore < riskCutoffHigh:
		riskLevel = RiskHigh
	case legitimacyScore < riskCutoffMedium:
		riskLevel = RiskMedium
	}

	analysis = &VolumeAnalysis{
		WashTradingScore:      washScore,
		VolumeLegitimacyScore: legitimacyScore,
		SuspiciousPatterns:    suspiciousPatterns,
		RiskLevel:             riskLevel,
		Timestamp:             time.Now(),
	}

	a.cache.Put(activity.TokenAddress, analysis)
	metrics.VolumeAnalyses.WithLabelValues(string(riskLevel)).Inc()

	if len(suspiciousPatterns) > 0 {
		a.logger.Infow("Suspicious volume patterns",
			"token", activity.TokenAddress,
			"wash_score", washScore,
			"legitimacy", legitimacyScore,
			"risk_level", riskLevel,
		)
	}

	return analysis
}

// CachedAnalysis returns the most recent analysis for a token, or nil.
func (a *Analyzer) CachedAnalysis(tokenAddress string) *VolumeAnalysis {
	return a.cache.Get(tokenAddress)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
