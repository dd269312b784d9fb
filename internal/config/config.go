// Package config loads the engine configuration from a YAML file and
// SOLSENTRY_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the analysis engine.
type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	MetricsPort int    `mapstructure:"metrics_port"`
	LedgerPath  string `mapstructure:"ledger_path"`

	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Alerting   AlertingConfig  `mapstructure:"alerting"`
}

// ThresholdConfig overrides the detector trigger levels.
type ThresholdConfig struct {
	LiquidityDrop float64 `mapstructure:"liquidity_drop"`
	PricePump     float64 `mapstructure:"price_pump"`
	VolumeSpike   float64 `mapstructure:"volume_spike"`
	SellPressure  float64 `mapstructure:"sell_pressure"`
}

// AlertingConfig controls alert delivery.
type AlertingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from the given path (optional) merged with
// environment variables and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SOLSENTRY")

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_port", 0)
	v.SetDefault("ledger_path", "./data/ledger.json")

	v.SetDefault("thresholds.liquidity_drop", 0.30)
	v.SetDefault("thresholds.price_pump", 0.50)
	v.SetDefault("thresholds.volume_spike", 5.0)
	v.SetDefault("thresholds.sell_pressure", 0.70)

	v.SetDefault("alerting.enabled", true)
}

// Validate checks ranges on the loaded values.
func (c *Config) Validate() error {
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535")
	}
	if c.Thresholds.LiquidityDrop <= 0 || c.Thresholds.LiquidityDrop > 1 {
		return fmt.Errorf("thresholds.liquidity_drop must be in (0, 1]")
	}
	if c.Thresholds.PricePump <= 0 {
		return fmt.Errorf("thresholds.price_pump must be positive")
	}
	if c.Thresholds.VolumeSpike <= 1 {
		return fmt.Errorf("thresholds.volume_spike must exceed 1")
	}
	if c.Thresholds.SellPressure <= 0.5 || c.Thresholds.SellPressure > 1 {
		return fmt.Errorf("thresholds.sell_pressure must be in (0.5, 1]")
	}
	return nil
}

// ThresholdOverrides converts the threshold config into the detector's
// update map.
func (c *Config) ThresholdOverrides() map[string]float64 {
	return map[string]float64{
		"liquidity_drop": c.Thresholds.LiquidityDrop,
		"price_pump":     c.Thresholds.PricePump,
		"volume_spike":   c.Thresholds.VolumeSpike,
		"sell_pressure":  c.Thresholds.SellPressure,
	}
}
