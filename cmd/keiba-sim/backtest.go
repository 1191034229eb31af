package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/backtest"
	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/strategy"
)

var (
	btStart      string
	btEnd        string
	btFormat     string
	btOutput     string
	btType       string
	btMethod     string
	btPick       int
	btIterations int
	btSeed       int64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a favorites strategy over historical races",
	Example: `  keiba-sim backtest --type quinella --method box --pick 4 --format html --output output/report.html
  keiba-sim backtest --start 2024-06-01 --end 2024-06-30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg := cfg.Backtest
		override(&btCfg.StartDate, btStart)
		override(&btCfg.EndDate, btEnd)
		override(&btCfg.ReportFormat, btFormat)
		override(&btCfg.OutputPath, btOutput)
		override(&btCfg.BetType, btType)
		override(&btCfg.Method, btMethod)
		if btPick > 0 {
			btCfg.PickCount = btPick
		}

		engineCfg, err := backtest.FromConfig(&btCfg, cfg.Simulation)
		if err != nil {
			return fmt.Errorf("invalid backtest config: %w", err)
		}
		if btIterations > 0 {
			engineCfg.MonteCarloIterations = btIterations
		}
		engineCfg.Seed = btSeed

		strat, err := strategy.NewFavoritesStrategyFromConfig(btCfg, cfg.Simulation.StakeUnit)
		if err != nil {
			return err
		}
		est, err := newEstimator()
		if err != nil {
			return err
		}
		source, err := newSource(string(datasource.CSVSourceType))
		if err != nil {
			return err
		}

		engine, err := backtest.NewEngine(engineCfg, source, strat, betting.NewSimulator(est), logs)
		if err != nil {
			return err
		}

		started := time.Now()
		result, err := engine.Evaluate(cmd.Context())
		if err != nil {
			return err
		}
		logs.WithFields(logrus.Fields{
			"strategy": result.Strategy,
			"duration": time.Since(started).String(),
			"output":   engineCfg.OutputPath,
		}).Info("Backtest finished")

		format, path := engineCfg.ReportFormat, engineCfg.OutputPath
		if jsonOutput {
			format, path = backtest.ReportJSON, btOutput
		}
		return backtest.WriteReport(result, format, path, os.Stdout)
	},
}

func init() {
	backtestCmd.Flags().StringVar(&btStart, "start", "", "Override start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "Override end date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btFormat, "format", "", "Report format: console, csv, html, json")
	backtestCmd.Flags().StringVarP(&btOutput, "output", "o", "", "Report path for csv, html and json")
	backtestCmd.Flags().StringVarP(&btType, "type", "t", "", "Bet type")
	backtestCmd.Flags().StringVarP(&btMethod, "method", "m", "", "Bet method")
	backtestCmd.Flags().IntVar(&btPick, "pick", 0, "Number of favorites to pick")
	backtestCmd.Flags().IntVar(&btIterations, "iterations", 0, "Monte carlo iterations")
	backtestCmd.Flags().Int64Var(&btSeed, "seed", 0, "Monte carlo seed; 0 seeds from the clock")
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
