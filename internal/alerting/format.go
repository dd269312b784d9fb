package alerting

import (
	"fmt"
	"strings"

	"github.com/solsentry/solsentry/internal/analysis/patterns"
	"github.com/solsentry/solsentry/internal/analysis/volume"
)

// FormatAnalysisAlert renders a pattern-analysis result as alert text.
func FormatAnalysisAlert(result *patterns.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "⚠️ Pattern Alert\n")
	fmt.Fprintf(&b, "Token: %s\n", result.TokenAddress)
	fmt.Fprintf(&b, "Risk Score: %.2f\n", result.RiskScore)
	fmt.Fprintf(&b, "%s", result.Recommendation)

	for _, alert := range result.PatternsDetected {
		fmt.Fprintf(&b, "\n- %s (%s, confidence %.2f)",
			patternLabel(alert.Type), alert.Severity, alert.Confidence)
	}

	return b.String()
}

// FormatVolumeAlert renders a volume analysis as alert text.
func FormatVolumeAlert(tokenAddress string, analysis *volume.VolumeAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📉 Volume Analysis\n")
	fmt.Fprintf(&b, "Token: %s\n", tokenAddress)
	fmt.Fprintf(&b, "Risk Level: %s\n", analysis.RiskLevel)
	fmt.Fprintf(&b, "Wash Trading Score: %.2f\n", analysis.WashTradingScore)
	fmt.Fprintf(&b, "Volume Legitimacy: %.2f", analysis.VolumeLegitimacyScore)

	for _, pattern := range analysis.SuspiciousPatterns {
		fmt.Fprintf(&b, "\n- %s", pattern)
	}

	return b.String()
}

func patternLabel(t patterns.PatternType) string {
	switch t {
	case patterns.PatternRugPull:
		return "Possible rug pull"
	case patterns.PatternPumpAndDump:
		return "Pump and dump"
	case patterns.PatternHoneypot:
		return "Honeypot"
	case patterns.PatternCEXListing:
		return "CEX listing"
	case patterns.PatternLargeSells:
		return "Heavy sell pressure"
	case patterns.PatternUnusualVolume:
		return "Unusual volume"
	default:
		return string(t)
	}
}
