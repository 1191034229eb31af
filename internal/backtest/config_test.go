package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/config"
)

func TestFromConfig(t *testing.T) {
	bt, err := FromConfig(&config.BacktestConfig{
		StartDate:       "2024-01-01",
		EndDate:         "2024-12-31",
		InitialBankroll: 100000,
		OutputPath:      "out/report.html",
		ReportFormat:    ReportHTML,
	}, config.SimulationConfig{MinStake: 100, StakeUnit: 100})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bt.StartDate)
	assert.Equal(t, int64(100), bt.StakeUnit)
	assert.Equal(t, 1000, bt.MonteCarloIterations)

	_, err = FromConfig(&config.BacktestConfig{StartDate: "2024-12-31", EndDate: "2024-01-01", InitialBankroll: 1}, config.SimulationConfig{})
	assert.Error(t, err)
	_, err = FromConfig(nil, config.SimulationConfig{})
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	open := BacktestConfig{}
	assert.True(t, open.InRange(""))

	cfg := BacktestConfig{
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, cfg.InRange("20241222"))
	assert.True(t, cfg.InRange("2024/12/01"))
	assert.True(t, cfg.InRange("2024-12-31"))
	assert.False(t, cfg.InRange("2025-01-01"))
	assert.False(t, cfg.InRange("unknown"))
}
