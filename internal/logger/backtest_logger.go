package logger

import (
	"github.com/sirupsen/logrus"
)

// BacktestLogger records per-race settlement during a backtest replay.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogRaceSettled logs a simulated race.
func (bl *BacktestLogger) LogRaceSettled(raceID string, tickets, hits int, stake, payout, bankroll int64) {
	bl.WithFields(logrus.Fields{
		"race_id":  raceID,
		"tickets":  tickets,
		"hits":     hits,
		"stake":    stake,
		"payout":   payout,
		"bankroll": bankroll,
	}).Debug("Race settled")
}

// LogRaceSkipped logs a race that could not be simulated.
func (bl *BacktestLogger) LogRaceSkipped(raceID, reason string) {
	bl.WithFields(logrus.Fields{
		"race_id": raceID,
		"reason":  reason,
	}).Debug("Race skipped")
}

// LogRunCompleted logs the summary of a backtest run.
func (bl *BacktestLogger) LogRunCompleted(runID, strategy string, races, skipped int, netProfit int64, returnRate float64) {
	bl.WithFields(logrus.Fields{
		"run_id":      runID,
		"strategy":    strategy,
		"races":       races,
		"skipped":     skipped,
		"net_profit":  netProfit,
		"return_rate": returnRate,
	}).Info("Backtest completed")
}
