// Package main provides the keiba-sim CLI: ticket expansion, payout estimates,
// race simulation and backtests over historical results.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	sourceName string
	logLevel   string
	jsonOutput bool

	cfg  *config.Config
	logs *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:     "keiba-sim",
	Short:   "Horse racing bet combination and payout simulator",
	Long:    `Expands bet selections into tickets, estimates payouts from win odds and settles them against race results.`,
	Version: fmt.Sprintf("%s (%s)", Version, GitCommit),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&sourceName, "source", "s", string(datasource.RaceCardSourceType), "Odds source: race_card or csv")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(racesCmd, ticketsCmd, estimateCmd, simulateCmd, backtestCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded

	level := cfg.App.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	// stdout carries command output
	logs = logger.NewLoggerWithOutput(level, cfg.App.Environment, os.Stderr)
	return nil
}

func newEstimator() (*betting.Estimator, error) {
	estCfg, err := cfg.Estimator.BettingConfig()
	if err != nil {
		return nil, err
	}
	return betting.NewEstimator(estCfg)
}

func newSource(name string) (datasource.RaceSource, error) {
	return datasource.NewFactory(cfg.Provider, logs).Create(datasource.SourceType(name))
}

func newService() (*service.SimulationService, error) {
	source, err := newSource(sourceName)
	if err != nil {
		return nil, err
	}
	est, err := newEstimator()
	if err != nil {
		return nil, err
	}
	return service.NewSimulationService(source, est, cfg.Simulation, logs), nil
}
