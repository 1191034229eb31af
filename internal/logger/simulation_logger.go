package logger

import (
	"github.com/sirupsen/logrus"
)

// SimulationLogger provides dedicated logging for ticket generation and simulation runs.
type SimulationLogger struct {
	*logrus.Entry
}

// NewSimulationLogger creates a new simulation logger.
func NewSimulationLogger(baseLogger *logrus.Logger) *SimulationLogger {
	return &SimulationLogger{
		Entry: baseLogger.WithField("component", "simulation"),
	}
}

// LogTicketsGenerated logs the expansion of a selection into tickets.
func (sl *SimulationLogger) LogTicketsGenerated(raceID, betType, method string, ticketCount int) {
	sl.WithFields(logrus.Fields{
		"race_id":      raceID,
		"bet_type":     betType,
		"bet_method":   method,
		"ticket_count": ticketCount,
	}).Debug("Tickets generated")
}

// LogSimulation logs a completed simulation run.
func (sl *SimulationLogger) LogSimulation(runID, raceID, betType string, tickets, hits int, totalStake, totalPayout int64, returnRate, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"run_id":       runID,
		"race_id":      raceID,
		"bet_type":     betType,
		"tickets":      tickets,
		"hits":         hits,
		"total_stake":  totalStake,
		"total_payout": totalPayout,
		"net_profit":   totalPayout - totalStake,
		"return_rate":  returnRate,
		"duration_ms":  durationMs,
	}).Info("Simulation completed")
}

// LogNoResult logs a simulation request for a race without a finishing order.
func (sl *SimulationLogger) LogNoResult(raceID string) {
	sl.WithField("race_id", raceID).Warn("Race has no result data")
}

// LogStakeRejected logs a stake that broke the purchase rules.
func (sl *SimulationLogger) LogStakeRejected(stake int64, reason string) {
	sl.WithFields(logrus.Fields{
		"stake":  stake,
		"reason": reason,
	}).Warn("Stake rejected")
}
