// Package patterns implements the statistical pattern detectors and the
// per-token risk aggregation used to flag rug pulls, pumps and dumping.
package patterns

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatternType identifies the kind of suspicious behavior an alert describes.
type PatternType string

const (
	PatternRugPull       PatternType = "rug_pull"
	PatternPumpAndDump   PatternType = "pump_and_dump"
	PatternHoneypot      PatternType = "honeypot"
	PatternCEXListing    PatternType = "cex_listing"
	PatternLargeSells    PatternType = "large_sells"
	PatternUnusualVolume PatternType = "unusual_volume"
)

// Severity of a fired alert.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// PatternAlert is the result of a single detector firing. Alerts are
// immutable once created; the analyzer stamps the token address before
// the alert leaves this package.
type PatternAlert struct {
	ID           string                 `json:"id"`
	Type         PatternType            `json:"pattern_type"`
	Confidence   float64                `json:"confidence"`
	Timestamp    time.Time              `json:"timestamp"`
	TokenAddress string                 `json:"token_address"`
	Severity     Severity               `json:"severity"`
	Details      map[string]interface{} `json:"details"`
}

// Threshold keys accepted by UpdateThresholds.
const (
	ThresholdLiquidityDrop = "liquidity_drop"
	ThresholdPricePump     = "price_pump"
	ThresholdVolumeSpike   = "volume_spike"
	ThresholdSellPressure  = "sell_pressure"
)

// Thresholds holds the detector trigger levels.
type Thresholds struct {
	LiquidityDrop float64 // relative drop, 0.30 = 30%
	PricePump     float64 // relative rise over the window
	VolumeSpike   float64 // multiple of average volume
	SellPressure  float64 // sell share of total volume
}

// DefaultThresholds returns the stock trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LiquidityDrop: 0.30,
		PricePump:     0.50,
		VolumeSpike:   5.0,
		SellPressure:  0.70,
	}
}

// Detector runs the four stateless pattern checks. All methods return nil
// when no pattern fires or the input is too sparse to judge; they never
// return an error for ordinary data gaps.
type Detector struct {
	mu         sync.RWMutex
	thresholds Thresholds
	logger     *zap.SugaredLogger
}

// NewDetector creates a detector with default thresholds.
func NewDetector(logger *zap.SugaredLogger) *Detector {
	return &Detector{
		thresholds: DefaultThresholds(),
		logger:     logger,
	}
}

// UpdateThresholds merges the supplied values into the current threshold
// set. Unknown keys are logged and ignored.
func (d *Detector) UpdateThresholds(updates map[string]float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, value := range updates {
		switch key {
		case ThresholdLiquidityDrop:
			d.thresholds.LiquidityDrop = value
		case ThresholdPricePump:
			d.thresholds.PricePump = value
		case ThresholdVolumeSpike:
			d.thresholds.VolumeSpike = value
		case ThresholdSellPressure:
			d.thresholds.SellPressure = value
		default:
			d.logger.Warnw("Unknown detector threshold ignored", "key", key)
		}
	}
}

// Thresholds returns a copy of the current threshold set.
func (d *Detector) Thresholds() Thresholds {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.thresholds
}

// DetectLiquidityDrop fires a rug-pull alert when liquidity fell by at least
// the configured fraction relative to the most recent historical value.
func (d *Detector) DetectLiquidityDrop(currentLiquidity float64, historicalLiquidity []float64) *PatternAlert {
	if len(historicalLiquidity) == 0 {
		return nil
	}

	prevLiquidity := historicalLiquidity[len(historicalLiquidity)-1]
	if prevLiquidity == 0 {
		return nil
	}

	change := (currentLiquidity - prevLiquidity) / prevLiquidity
	if change > -d.Thresholds().LiquidityDrop {
		return nil
	}

	severity := SeverityMedium
	if change <= -0.5 {
		severity = SeverityHigh
	}

	return &PatternAlert{
		ID:         uuid.NewString(),
		Type:       PatternRugPull,
		Confidence: clamp01(abs(change) * 2),
		Timestamp:  time.Now(),
		Severity:   severity,
		Details: map[string]interface{}{
			"liquidity_change":   change,
			"current_liquidity":  currentLiquidity,
			"previous_liquidity": prevLiquidity,
		},
	}
}

// DetectPumpPattern fires when price rose by the pump threshold over the
// window while the latest volume spiked against the window average.
func (d *Detector) DetectPumpPattern(prices, volumes []float64, timestamps []time.Time) *PatternAlert {
	if len(prices) < 2 || len(volumes) < 2 {
		return nil
	}
	if prices[0] == 0 {
		return nil
	}

	priceChange := (prices[len(prices)-1] - prices[0]) / prices[0]

	avgVolume := mean(volumes[:len(volumes)-1])
	volumeChange := 0.0
	if avgVolume > 0 {
		volumeChange = volumes[len(volumes)-1] / avgVolume
	}

	t := d.Thresholds()
	if priceChange < t.PricePump || volumeChange < t.VolumeSpike {
		return nil
	}

	confidence := clamp01(0.7*(priceChange/t.PricePump) + 0.3*(volumeChange/t.VolumeSpike))
	severity := SeverityMedium
	if confidence > 0.8 {
		severity = SeverityHigh
	}

	details := map[string]interface{}{
		"price_change":  priceChange,
		"volume_change": volumeChange,
	}
	if len(timestamps) >= 2 {
		details["time_frame"] = timestamps[len(timestamps)-1].Sub(timestamps[0]).String()
	}

	return &PatternAlert{
		ID:         uuid.NewString(),
		Type:       PatternPumpAndDump,
		Confidence: confidence,
		Timestamp:  time.Now(),
		Severity:   severity,
		Details:    details,
	}
}

// DetectUnusualVolume fires when the current volume is a large multiple of
// the historical average.
func (d *Detector) DetectUnusualVolume(currentVolume float64, historicalVolumes []float64) *PatternAlert {
	if len(historicalVolumes) == 0 {
		return nil
	}

	avgVolume := mean(historicalVolumes)
	if avgVolume == 0 {
		return nil
	}

	volumeRatio := currentVolume / avgVolume
	t := d.Thresholds()
	if volumeRatio < t.VolumeSpike {
		return nil
	}

	severity := SeverityMedium
	if volumeRatio > 10 {
		severity = SeverityHigh
	}

	return &PatternAlert{
		ID:         uuid.NewString(),
		Type:       PatternUnusualVolume,
		Confidence: clamp01(volumeRatio / t.VolumeSpike),
		Timestamp:  time.Now(),
		Severity:   severity,
		Details: map[string]interface{}{
			"volume_ratio":   volumeRatio,
			"current_volume": currentVolume,
			"average_volume": avgVolume,
		},
	}
}

// DetectSellPressure fires when the sell share of total volume crosses the
// configured threshold, suggesting holders are dumping.
func (d *Detector) DetectSellPressure(buyVolume, sellVolume float64) *PatternAlert {
	totalVolume := buyVolume + sellVolume
	if totalVolume == 0 {
		return nil
	}

	sellRatio := sellVolume / totalVolume
	if sellRatio < d.Thresholds().SellPressure {
		return nil
	}

	severity := SeverityMedium
	if sellRatio > 0.8 {
		severity = SeverityHigh
	}

	return &PatternAlert{
		ID:         uuid.NewString(),
		Type:       PatternLargeSells,
		Confidence: clamp01((sellRatio - 0.5) * 2),
		Timestamp:  time.Now(),
		Severity:   severity,
		Details: map[string]interface{}{
			"sell_ratio":  sellRatio,
			"buy_volume":  buyVolume,
			"sell_volume": sellVolume,
		},
	}
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
