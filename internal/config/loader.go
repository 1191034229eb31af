package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
	envPrefix         = "KEIBA_SIM"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// ReloadFromEnv reloads the configuration from KEIBA_SIM_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults mirrors the purchase rules and proxy list of the browser tool
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "keiba-sim")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("estimator.formula", "sum")
	v.SetDefault("estimator.place_multiplier", 0.25)
	v.SetDefault("estimator.place_base", 1.1)

	v.SetDefault("simulation.stake_per_ticket", 100)
	v.SetDefault("simulation.min_stake", 100)
	v.SetDefault("simulation.stake_unit", 100)
	v.SetDefault("simulation.bet_type", "quinella")
	v.SetDefault("simulation.method", "box")

	v.SetDefault("provider.proxies", []string{
		"https://api.allorigins.win/raw?url={url}",
		"https://corsproxy.io/?{url}",
	})
	v.SetDefault("provider.attempt_timeout_seconds", 10)
	v.SetDefault("provider.requests_per_second", 1.0)
	v.SetDefault("provider.burst", 1)
	v.SetDefault("provider.retry_max", 2)
	v.SetDefault("provider.cache_ttl_seconds", 300)

	v.SetDefault("proxy_server.port", 8080)
	v.SetDefault("proxy_server.allowed_hosts", []string{"race.netkeiba.com", "db.netkeiba.com"})
	v.SetDefault("proxy_server.default_charset", "euc-jp")
	v.SetDefault("proxy_server.timeout_seconds", 15)
	v.SetDefault("proxy_server.max_body_bytes", 10<<20)
	v.SetDefault("proxy_server.circuit_cooldown_seconds", 30)

	v.SetDefault("backtest.bet_type", "quinella")
	v.SetDefault("backtest.method", "box")
	v.SetDefault("backtest.pick_count", 3)
	v.SetDefault("backtest.stake_per_ticket", 100)
	v.SetDefault("backtest.initial_bankroll", 100000)
	v.SetDefault("backtest.output_path", "output/backtest")
	v.SetDefault("backtest.report_format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
