package backtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/keiba-sim/internal/config"
)

// race dates appear as 20241222, 2024/12/22 or 2024-12-22 depending on the source
var raceDateLayouts = []string{"20060102", "2006/01/02", "2006-01-02"}

// BacktestConfig extends core config with backtest-specific settings
type BacktestConfig struct {
	// zero dates leave the range open on that side
	StartDate            time.Time
	EndDate              time.Time
	InitialBankroll      int64
	MinStake             int64
	StakeUnit            int64
	OutputPath           string
	ReportFormat         string
	MonteCarloIterations int
	Seed                 int64
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig, sim config.SimulationConfig) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}

	bt := BacktestConfig{
		InitialBankroll:      cfg.InitialBankroll,
		MinStake:             sim.MinStake,
		StakeUnit:            sim.StakeUnit,
		OutputPath:           cfg.OutputPath,
		ReportFormat:         cfg.ReportFormat,
		MonteCarloIterations: 1000,
	}
	if cfg.StartDate != "" {
		start, err := time.Parse("2006-01-02", cfg.StartDate)
		if err != nil {
			return BacktestConfig{}, fmt.Errorf("invalid start date: %w", err)
		}
		bt.StartDate = start
	}
	if cfg.EndDate != "" {
		end, err := time.Parse("2006-01-02", cfg.EndDate)
		if err != nil {
			return BacktestConfig{}, fmt.Errorf("invalid end date: %w", err)
		}
		bt.EndDate = end
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.StartDate.After(b.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if b.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be positive")
	}
	if b.StakeUnit < 0 || b.MinStake < 0 {
		return fmt.Errorf("stake unit and minimum cannot be negative")
	}
	if b.MonteCarloIterations < 0 {
		return fmt.Errorf("monte carlo iterations cannot be negative")
	}
	switch b.ReportFormat {
	case "", ReportConsole, ReportCSV, ReportHTML, ReportJSON:
	default:
		return fmt.Errorf("unknown report format %q", b.ReportFormat)
	}
	return nil
}

// InRange reports whether a race date falls inside the configured window.
// Undated or unparseable races only pass an open window.
func (b BacktestConfig) InRange(raceDate string) bool {
	if b.StartDate.IsZero() && b.EndDate.IsZero() {
		return true
	}
	day, ok := ParseRaceDate(raceDate)
	if !ok {
		return false
	}
	if !b.StartDate.IsZero() && day.Before(b.StartDate) {
		return false
	}
	if !b.EndDate.IsZero() && day.After(b.EndDate) {
		return false
	}
	return true
}

// ParseRaceDate reads a race date in any of the layouts providers use
func ParseRaceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range raceDateLayouts {
		if day, err := time.Parse(layout, s); err == nil {
			return day, true
		}
	}
	return time.Time{}, false
}
