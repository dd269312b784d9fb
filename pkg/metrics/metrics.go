package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TokenAnalyses counts pattern analyses by resulting risk band
// (high/medium/low/safe/degraded).
var TokenAnalyses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "solsentry_token_analyses_total",
		Help: "Total number of token pattern analyses performed",
	},
	[]string{"risk_band"},
)

// PatternAlerts counts fired pattern alerts by pattern type
var PatternAlerts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "solsentry_pattern_alerts_total",
		Help: "Total number of pattern alerts fired by the detectors",
	},
	[]string{"pattern_type"},
)

// VolumeAnalyses counts volume analyses by resulting risk level
var VolumeAnalyses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "solsentry_volume_analyses_total",
		Help: "Total number of volume analyses performed",
	},
	[]string{"risk_level"},
)

// Ledger position lifecycle metrics
var (
	PositionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solsentry_positions_opened_total",
			Help: "Number of trade positions opened by the P&L tracker",
		},
	)

	PositionsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solsentry_positions_closed_total",
			Help: "Number of trade positions closed by the P&L tracker",
		},
	)

	UnmatchedSells = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solsentry_unmatched_sells_total",
			Help: "Number of SELL transactions with no open position to close",
		},
	)
)

func init() {
	prometheus.MustRegister(TokenAnalyses, PatternAlerts, VolumeAnalyses)
	prometheus.MustRegister(PositionsOpened, PositionsClosed, UnmatchedSells)
}
