// Package config provides configuration management for the keiba-sim application.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Estimator   EstimatorConfig   `mapstructure:"estimator" validate:"required"`
	Simulation  SimulationConfig  `mapstructure:"simulation" validate:"required"`
	Provider    ProviderConfig    `mapstructure:"provider" validate:"required"`
	ProxyServer ProxyServerConfig `mapstructure:"proxy_server" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// EstimatorConfig selects the odds estimation formula and its coefficients.
// Coefficient keys are bet type names; missing keys take the formula's defaults.
type EstimatorConfig struct {
	Formula         string             `mapstructure:"formula" validate:"required,formula"`
	Coefficients    map[string]float64 `mapstructure:"coefficients" validate:"omitempty,dive,keys,bettype,endkeys,gte=0"`
	PlaceMultiplier float64            `mapstructure:"place_multiplier" validate:"gte=0"`
	PlaceBase       float64            `mapstructure:"place_base" validate:"gte=0"`
}

// SimulationConfig represents ticket purchase rules
type SimulationConfig struct {
	StakePerTicket int64  `mapstructure:"stake_per_ticket" validate:"required,gt=0"`
	MinStake       int64  `mapstructure:"min_stake" validate:"required,gt=0"`
	StakeUnit      int64  `mapstructure:"stake_unit" validate:"required,gt=0"`
	BetType        string `mapstructure:"bet_type" validate:"required,bettype"`
	Method         string `mapstructure:"method" validate:"required,betmethod"`
}

// ProviderConfig represents odds source configuration
type ProviderConfig struct {
	RaceCardURL           string   `mapstructure:"race_card_url" validate:"omitempty,url"`
	RaceCardFile          string   `mapstructure:"race_card_file"`
	HistoryCSV            string   `mapstructure:"history_csv"`
	Proxies               []string `mapstructure:"proxies" validate:"dive,required"`
	AttemptTimeoutSeconds int      `mapstructure:"attempt_timeout_seconds" validate:"required,gt=0"`
	RequestsPerSecond     float64  `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                 int      `mapstructure:"burst" validate:"required,gt=0"`
	RetryMax              int      `mapstructure:"retry_max" validate:"gte=0"`
	CacheTTLSeconds       int      `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	UserAgent             string   `mapstructure:"user_agent"`
}

// ProxyServerConfig represents the fetch pass-through server configuration
type ProxyServerConfig struct {
	Address        string   `mapstructure:"address"`
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedHosts   []string `mapstructure:"allowed_hosts"`
	DefaultCharset string   `mapstructure:"default_charset" validate:"required"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	UserAgent      string   `mapstructure:"user_agent"`
	// MaxBodyBytes caps upstream pages; larger bodies fail rather than truncate
	MaxBodyBytes           int64 `mapstructure:"max_body_bytes" validate:"gte=0"`
	CircuitCooldownSeconds int   `mapstructure:"circuit_cooldown_seconds" validate:"gte=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate       string `mapstructure:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	BetType         string `mapstructure:"bet_type" validate:"required,bettype"`
	Method          string `mapstructure:"method" validate:"required,betmethod"`
	PickCount       int    `mapstructure:"pick_count" validate:"required,gt=0,lte=18"`
	StakePerTicket  int64  `mapstructure:"stake_per_ticket" validate:"required,gt=0"`
	InitialBankroll int64  `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	OutputPath      string `mapstructure:"output_path" validate:"required"`
	ReportFormat    string `mapstructure:"report_format" validate:"required,oneof=console csv html json"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// BettingConfig converts the estimator section into the engine's configuration
func (e EstimatorConfig) BettingConfig() (betting.EstimatorConfig, error) {
	var cfg betting.EstimatorConfig
	switch betting.Formula(e.Formula) {
	case betting.FormulaAverage:
		cfg = betting.AverageEstimatorConfig()
	case betting.FormulaSum, "":
		cfg = betting.DefaultEstimatorConfig()
	default:
		return cfg, fmt.Errorf("unknown estimator formula %q", e.Formula)
	}

	for name, coef := range e.Coefficients {
		bt, err := models.ParseBetType(name)
		if err != nil {
			return cfg, err
		}
		cfg.Coefficients[bt] = coef
	}
	if e.PlaceMultiplier > 0 {
		cfg.PlaceMultiplier = e.PlaceMultiplier
	}
	if e.PlaceBase > 0 {
		cfg.PlaceBase = e.PlaceBase
	}
	return cfg, nil
}

// AttemptTimeout returns the per-proxy attempt timeout
func (p ProviderConfig) AttemptTimeout() time.Duration {
	return time.Duration(p.AttemptTimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched race cards stay fresh
func (p ProviderConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// Timeout returns the upstream fetch timeout of the proxy server
func (p ProxyServerConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ListenAddress returns host:port for the proxy server
func (p ProxyServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", p.Address, p.Port)
}
