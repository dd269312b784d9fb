package volume

import "math"

// Volume-consistency scoring: steady volume with a persistent trend reads
// as organic, erratic volume reads as manufactured.
const (
	weightVariation = 0.7
	weightTrend     = 0.3
)

// volumeConsistency scores how organic the volume history looks, in [0,1].
// Fewer than two points cannot be judged and score 0.
func volumeConsistency(history []float64) float64 {
	if len(history) < 2 {
		return 0.0
	}

	meanVolume := mean(history)
	cv := math.Inf(1)
	if meanVolume > 0 {
		cv = stdDev(history, meanVolume) / meanVolume
	}
	variationScore := 1.0 - min(1.0, cv/2)

	return clamp01(weightVariation*variationScore + weightTrend*trendConsistency(history))
}

// trendConsistency is the fraction of adjacent first-difference pairs that
// agree in sign. Zero when the series is too short to form a pair.
func trendConsistency(history []float64) float64 {
	diffs := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		diffs = append(diffs, history[i]-history[i-1])
	}

	if len(diffs) < 2 {
		return 0.0
	}

	agreements := 0
	for i := 1; i < len(diffs); i++ {
		if sign(diffs[i]) == sign(diffs[i-1]) {
			agreements++
		}
	}
	return float64(agreements) / float64(len(diffs)-1)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
