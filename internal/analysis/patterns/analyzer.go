package patterns

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solsentry/solsentry/pkg/metrics"
	"github.com/solsentry/solsentry/pkg/models"
)

// Risk score bands and the recommendations attached to them.
const (
	riskBandHigh   = 0.8
	riskBandMedium = 0.6
	riskBandLow    = 0.4

	RecommendationHighRisk   = "HIGH RISK: Immediate attention required. Multiple high-risk patterns detected."
	RecommendationMediumRisk = "MEDIUM RISK: Exercise caution. Suspicious patterns detected."
	RecommendationLowRisk    = "LOW RISK: Monitor situation. Some unusual patterns detected."
	RecommendationSafe       = "SAFE: No significant risk patterns detected."
	RecommendationDegraded   = "Analysis failed due to error"
)

// patternWeights scales each pattern type's confidence when combining
// alerts into a single risk score. Unlisted types weigh 0.5.
var patternWeights = map[PatternType]float64{
	PatternRugPull:       1.0,
	PatternHoneypot:      0.9,
	PatternPumpAndDump:   0.8,
	PatternLargeSells:    0.7,
	PatternUnusualVolume: 0.6,
}

const defaultPatternWeight = 0.5

// AnalysisDetails summarizes the alerts behind an analysis result.
type AnalysisDetails struct {
	PatternCount         int              `json:"pattern_count"`
	PatternTypes         []string         `json:"pattern_types"`
	SeverityDistribution map[Severity]int `json:"severity_distribution"`
	Error                string           `json:"error,omitempty"`
}

// AnalysisResult is the outcome of one AnalyzeToken call. Never mutated
// after creation; appended to the per-token history.
type AnalysisResult struct {
	TokenAddress     string          `json:"token_address"`
	RiskScore        float64         `json:"risk_score"`
	PatternsDetected []*PatternAlert `json:"patterns_detected"`
	Timestamp        time.Time       `json:"timestamp"`
	Recommendation   string          `json:"recommendation"`
	Details          AnalysisDetails `json:"details"`

	// Degraded marks a result produced by the failure fallback rather
	// than a completed analysis. DegradedReason carries the cause.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// Analyzer orchestrates the detectors for one token per call and keeps the
// per-token analysis history plus the set of currently high-risk tokens.
// Safe for concurrent use by callers analyzing different tokens.
type Analyzer struct {
	detector *Detector
	logger   *zap.SugaredLogger

	mu       sync.RWMutex
	history  map[string][]*AnalysisResult
	highRisk map[string]struct{}
}

// NewAnalyzer creates an analyzer with its own detector instance.
func NewAnalyzer(logger *zap.SugaredLogger) *Analyzer {
	return &Analyzer{
		detector: NewDetector(logger),
		logger:   logger,
		history:  make(map[string][]*AnalysisResult),
		highRisk: make(map[string]struct{}),
	}
}

// Detector exposes the underlying detector for threshold tuning.
func (a *Analyzer) Detector() *Detector {
	return a.detector
}

// AnalyzeToken runs all detectors against the snapshot and aggregates any
// fired alerts into a single risk verdict. It never returns an error: an
// internal failure yields a degraded result so the monitoring flow keeps
// running.
func (a *Analyzer) AnalyzeToken(snapshot models.TokenSnapshot) (result *AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorw("Token analysis failed", "token", snapshot.TokenAddress, "panic", r)
			result = a.degradedResult(snapshot.TokenAddress, fmt.Sprintf("%v", r))
			metrics.TokenAnalyses.WithLabelValues("degraded").Inc()
		}
	}()

	alerts := a.runDetectors(snapshot)

	riskScore := combineRiskScore(alerts)
	result = &AnalysisResult{
		TokenAddress:     snapshot.TokenAddress,
		RiskScore:        riskScore,
		PatternsDetected: alerts,
		Timestamp:        time.Now(),
		Recommendation:   recommendationFor(riskScore),
		Details:          summarize(alerts),
	}

	a.recordResult(result)

	metrics.TokenAnalyses.WithLabelValues(riskBand(riskScore)).Inc()
	for _, alert := range alerts {
		metrics.PatternAlerts.WithLabelValues(string(alert.Type)).Inc()
	}

	if len(alerts) > 0 {
		a.logger.Infow("Patterns detected",
			"token", snapshot.TokenAddress,
			"patterns", len(alerts),
			"risk_score", riskScore,
		)
	}

	return result
}

// runDetectors fires the four checks and stamps the token address onto
// every alert produced.
func (a *Analyzer) runDetectors(snapshot models.TokenSnapshot) []*PatternAlert {
	var alerts []*PatternAlert

	if alert := a.detector.DetectLiquidityDrop(snapshot.LiquidityUSD, snapshot.HistoricalLiquidity); alert != nil {
		alerts = append(alerts, alert)
	}

	if len(snapshot.PriceHistory) > 0 && len(snapshot.VolumeHistory) > 0 {
		if alert := a.detector.DetectPumpPattern(snapshot.PriceHistory, snapshot.VolumeHistory, snapshot.Timestamps); alert != nil {
			alerts = append(alerts, alert)
		}
	}

	if alert := a.detector.DetectUnusualVolume(snapshot.Volume24h, snapshot.HistoricalVolumes); alert != nil {
		alerts = append(alerts, alert)
	}

	if alert := a.detector.DetectSellPressure(snapshot.BuyVolume24h, snapshot.SellVolume24h); alert != nil {
		alerts = append(alerts, alert)
	}

	for _, alert := range alerts {
		alert.TokenAddress = snapshot.TokenAddress
	}

	return alerts
}

// recordResult appends the result to the token's history and keeps the
// high-risk set in line with the latest analysis only.
func (a *Analyzer) recordResult(result *AnalysisResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history[result.TokenAddress] = append(a.history[result.TokenAddress], result)

	if result.RiskScore >= riskBandHigh {
		a.highRisk[result.TokenAddress] = struct{}{}
	} else {
		delete(a.highRisk, result.TokenAddress)
	}
}

func (a *Analyzer) degradedResult(tokenAddress, reason string) *AnalysisResult {
	result := &AnalysisResult{
		TokenAddress:     tokenAddress,
		RiskScore:        0.0,
		PatternsDetected: []*PatternAlert{},
		Timestamp:        time.Now(),
		Recommendation:   RecommendationDegraded,
		Details: AnalysisDetails{
			SeverityDistribution: map[Severity]int{SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0},
			Error:                reason,
		},
		Degraded:       true,
		DegradedReason: reason,
	}
	a.recordResult(result)
	return result
}

// TokenHistory returns the analysis history for a token, oldest first.
func (a *Analyzer) TokenHistory(tokenAddress string) []*AnalysisResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	history := a.history[tokenAddress]
	out := make([]*AnalysisResult, len(history))
	copy(out, history)
	return out
}

// HighRiskTokens returns a copy of the current high-risk token set.
func (a *Analyzer) HighRiskTokens() map[string]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]struct{}, len(a.highRisk))
	for addr := range a.highRisk {
		out[addr] = struct{}{}
	}
	return out
}

// ClearHistory drops all analysis history and the high-risk set.
func (a *Analyzer) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = make(map[string][]*AnalysisResult)
	a.highRisk = make(map[string]struct{})
}

// combineRiskScore averages the type-weighted confidences of the fired
// alerts, capped at 1. Zero when nothing fired.
func combineRiskScore(alerts []*PatternAlert) float64 {
	if len(alerts) == 0 {
		return 0.0
	}

	var sum float64
	for _, alert := range alerts {
		weight, ok := patternWeights[alert.Type]
		if !ok {
			weight = defaultPatternWeight
		}
		sum += alert.Confidence * weight
	}

	return clamp01(sum / float64(len(alerts)))
}

func recommendationFor(riskScore float64) string {
	switch {
	case riskScore >= riskBandHigh:
		return RecommendationHighRisk
	case riskScore >= riskBandMedium:
		return RecommendationMediumRisk
	case riskScore >= riskBandLow:
		return RecommendationLowRisk
	default:
		return RecommendationSafe
	}
}

func riskBand(riskScore float64) string {
	switch {
	case riskScore >= riskBandHigh:
		return "high"
	case riskScore >= riskBandMedium:
		return "medium"
	case riskScore >= riskBandLow:
		return "low"
	default:
		return "safe"
	}
}

func summarize(alerts []*PatternAlert) AnalysisDetails {
	details := AnalysisDetails{
		PatternCount: len(alerts),
		PatternTypes: make([]string, 0, len(alerts)),
		SeverityDistribution: map[Severity]int{
			SeverityHigh:   0,
			SeverityMedium: 0,
			SeverityLow:    0,
		},
	}

	for _, alert := range alerts {
		details.PatternTypes = append(details.PatternTypes, string(alert.Type))
		details.SeverityDistribution[alert.Severity]++
	}

	return details
}
