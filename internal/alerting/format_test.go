package alerting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/solsentry/solsentry/internal/analysis/patterns"
	"github.com/solsentry/solsentry/internal/analysis/volume"
)

func TestFormatAnalysisAlert(t *testing.T) {
	result := &patterns.AnalysisResult{
		TokenAddress:   "So1Token",
		RiskScore:      0.9,
		Recommendation: patterns.RecommendationHighRisk,
		PatternsDetected: []*patterns.PatternAlert{
			{Type: patterns.PatternRugPull, Severity: patterns.SeverityHigh, Confidence: 1.0},
			{Type: patterns.PatternPumpAndDump, Severity: patterns.SeverityMedium, Confidence: 0.75},
		},
	}

	text := FormatAnalysisAlert(result)

	assert.Contains(t, text, "Token: So1Token")
	assert.Contains(t, text, "Risk Score: 0.90")
	assert.Contains(t, text, patterns.RecommendationHighRisk)
	assert.Contains(t, text, "Possible rug pull (HIGH, confidence 1.00)")
	assert.Contains(t, text, "Pump and dump (MEDIUM, confidence 0.75)")
}

func TestFormatAnalysisAlertNoPatterns(t *testing.T) {
	text := FormatAnalysisAlert(&patterns.AnalysisResult{
		TokenAddress:   "So1Token",
		Recommendation: patterns.RecommendationSafe,
	})

	assert.Contains(t, text, patterns.RecommendationSafe)
	assert.NotContains(t, text, "\n- ")
}

func TestFormatVolumeAlert(t *testing.T) {
	analysis := &volume.VolumeAnalysis{
		WashTradingScore:      0.85,
		VolumeLegitimacyScore: 0.12,
		RiskLevel:             volume.RiskHigh,
		SuspiciousPatterns:    []string{volume.NoteWashTrading},
	}

	text := FormatVolumeAlert("So1Token", analysis)

	assert.Contains(t, text, "Risk Level: HIGH")
	assert.Contains(t, text, "Wash Trading Score: 0.85")
	assert.Contains(t, text, "Volume Legitimacy: 0.12")
	assert.Contains(t, text, volume.NoteWashTrading)
}

func TestPatternLabelFallsBackToRawType(t *testing.T) {
	assert.Equal(t, "mystery", patternLabel(patterns.PatternType("mystery")))
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zaptest.NewLogger(t).Sugar())
	assert.NoError(t, n.Notify(context.Background(), "hello"))
}
