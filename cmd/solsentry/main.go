// Command solsentry runs the token analysis engine over market-data
// documents produced by the collector layer: it scores each token for
// pump/rug/wash-trading risk, records trade executions in the P&L ledger
// and emits formatted alerts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/solsentry/solsentry/internal/alerting"
	"github.com/solsentry/solsentry/internal/analysis/patterns"
	"github.com/solsentry/solsentry/internal/analysis/pnl"
	"github.com/solsentry/solsentry/internal/analysis/volume"
	"github.com/solsentry/solsentry/internal/config"
	"github.com/solsentry/solsentry/pkg/logger"
	"github.com/solsentry/solsentry/pkg/models"
)

// marketDocument is one input file: a token snapshot and/or activity to
// analyze, plus any trade executions to record in the ledger.
type marketDocument struct {
	Snapshot   *models.TokenSnapshot `json:"token_snapshot,omitempty"`
	Activity   *models.TokenActivity `json:"token_activity,omitempty"`
	Executions []execution           `json:"executions,omitempty"`
}

type execution struct {
	TokenAddress    string          `json:"token_address"`
	TokenSymbol     string          `json:"token_symbol"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PriceUSD        decimal.Decimal `json:"price_usd"`
	GasFeeUSD       decimal.Decimal `json:"gas_fee_usd"`
	TransactionHash string          `json:"transaction_hash"`
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	report := flag.Bool("report", false, "print the trading performance report and exit")
	flag.Parse()

	// Local .env overrides are optional.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zl, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	log := zl.Sugar()

	log.Infow("solsentry starting",
		"ledger_path", cfg.LedgerPath,
		"metrics_port", cfg.MetricsPort,
		"alerting_enabled", cfg.Alerting.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier alerting.Notifier = alerting.NopNotifier{}
	if cfg.Alerting.Enabled {
		notifier = alerting.NewLogNotifier(log)
	}

	analyzer := patterns.NewAnalyzer(log)
	analyzer.Detector().UpdateThresholds(cfg.ThresholdOverrides())
	volumeAnalyzer := volume.NewAnalyzer(log, volume.NewCache())
	tracker := pnl.NewTracker(log, notifier)

	if _, err := os.Stat(cfg.LedgerPath); err == nil {
		if err := tracker.LoadFromFile(cfg.LedgerPath); err != nil {
			log.Fatalw("Failed to load ledger", "path", cfg.LedgerPath, "error", err)
		}
		log.Infow("Ledger loaded", "path", cfg.LedgerPath, "open_positions", tracker.OpenPositionCount())
	}

	if *report {
		fmt.Println(pnl.FormatPerformanceReport(tracker.PerformanceSummary()))
		return
	}

	if cfg.MetricsPort > 0 {
		go serveMetrics(log, cfg.MetricsPort)
	}

	processed := 0
	for _, path := range flag.Args() {
		if err := processFile(ctx, log, path, analyzer, volumeAnalyzer, tracker); err != nil {
			log.Errorw("Failed to process market document", "path", path, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		if err := tracker.SaveToFile(cfg.LedgerPath); err != nil {
			log.Errorw("Failed to save ledger", "path", cfg.LedgerPath, "error", err)
		}
	}

	log.Infow("Processing complete",
		"documents", processed,
		"high_risk_tokens", len(analyzer.HighRiskTokens()),
	)

	// With a metrics port configured, stay up for scrapes until signaled.
	if cfg.MetricsPort > 0 {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Infow("Shutting down", "signal", sig.String())
	}
}

// processFile analyzes one market document and prints any alerts.
func processFile(ctx context.Context, log *zap.SugaredLogger, path string,
	analyzer *patterns.Analyzer, volumeAnalyzer *volume.Analyzer, tracker *pnl.Tracker) error {

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc marketDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if doc.Snapshot != nil {
		result := analyzer.AnalyzeToken(*doc.Snapshot)
		if len(result.PatternsDetected) > 0 || result.Degraded {
			fmt.Println(alerting.FormatAnalysisAlert(result))
		}
	}

	if doc.Activity != nil {
		analysis := volumeAnalyzer.AnalyzeVolumePatterns(*doc.Activity)
		if analysis.RiskLevel != volume.RiskLow {
			fmt.Println(alerting.FormatVolumeAlert(doc.Activity.TokenAddress, analysis))
		}
	}

	for _, exec := range doc.Executions {
		_, err := tracker.RecordTransaction(ctx,
			exec.TokenAddress, exec.TokenSymbol,
			pnl.TransactionType(exec.Type),
			exec.Quantity, exec.PriceUSD, exec.GasFeeUSD,
			exec.TransactionHash,
		)
		if err != nil {
			log.Warnw("Skipping execution", "hash", exec.TransactionHash, "error", err)
		}
	}

	return nil
}

func serveMetrics(log *zap.SugaredLogger, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Infow("Metrics server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorw("Metrics server stopped", "error", err)
	}
}
