package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/logger"
)

// SourceType represents the type of odds provider
type SourceType string

const (
	// RaceCardSourceType reads today's race card (remote or file)
	RaceCardSourceType SourceType = "race_card"
	// CSVSourceType reads historical results from a CSV export
	CSVSourceType SourceType = "csv"
)

// Factory creates providers based on configuration
type Factory struct {
	logger *logger.ProviderLogger
	config config.ProviderConfig
}

// NewFactory creates a new provider factory
func NewFactory(cfg config.ProviderConfig, log *logrus.Logger) *Factory {
	return &Factory{
		logger: logger.NewProviderLogger(log),
		config: cfg,
	}
}

// Create creates a cached provider for the source type
func (f *Factory) Create(sourceType SourceType) (RaceSource, error) {
	var inner RaceSource
	switch sourceType {
	case RaceCardSourceType:
		source, err := f.createRaceCardSource()
		if err != nil {
			return nil, err
		}
		inner = source
	case CSVSourceType:
		if f.config.HistoryCSV == "" {
			return nil, fmt.Errorf("csv source requires provider.history_csv")
		}
		inner = NewCSVProvider(f.config.HistoryCSV, f.logger)
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sourceType)
	}

	if f.config.CacheTTLSeconds <= 0 {
		return inner, nil
	}
	return NewCachedProvider(inner, f.config.CacheTTL(), f.logger), nil
}

// createRaceCardSource prefers a local file over the remote card
func (f *Factory) createRaceCardSource() (*RaceCardProvider, error) {
	if f.config.RaceCardFile != "" {
		return NewRaceCardFileProvider(f.config.RaceCardFile, f.logger), nil
	}
	if f.config.RaceCardURL == "" {
		return nil, fmt.Errorf("race card source requires provider.race_card_url or provider.race_card_file")
	}

	fetcher, err := NewProxyFetcher(f.FetcherConfig(), f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy fetcher: %w", err)
	}
	return NewRaceCardProvider(fetcher, f.config.RaceCardURL, f.logger), nil
}

// FetcherConfig derives the proxy chain settings from provider configuration
func (f *Factory) FetcherConfig() ProxyFetcherConfig {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = f.config.AttemptTimeout()
	httpCfg.MaxRetries = f.config.RetryMax
	if f.config.RequestsPerSecond > 0 {
		httpCfg.RateLimit = f.config.RequestsPerSecond
	}
	if f.config.Burst > 0 {
		httpCfg.Burst = f.config.Burst
	}
	return ProxyFetcherConfig{
		Proxies:        f.config.Proxies,
		AttemptTimeout: f.config.AttemptTimeout(),
		UserAgent:      f.config.UserAgent,
		HTTP:           httpCfg,
	}
}

// ListAvailableSources returns the source types the configuration can serve
func (f *Factory) ListAvailableSources() []SourceType {
	available := make([]SourceType, 0, 2)
	if f.config.RaceCardFile != "" || f.config.RaceCardURL != "" {
		available = append(available, RaceCardSourceType)
	}
	if f.config.HistoryCSV != "" {
		available = append(available, CSVSourceType)
	}
	return available
}
