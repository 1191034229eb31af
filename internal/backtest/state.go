package backtest

import (
	"github.com/google/uuid"
)

// RaceOutcome is the settlement of one race
type RaceOutcome struct {
	RunID    uuid.UUID `json:"run_id"`
	RaceID   string    `json:"race_id"`
	Date     string    `json:"date,omitempty"`
	Venue    string    `json:"venue,omitempty"`
	Name     string    `json:"name,omitempty"`
	Tickets  int       `json:"tickets"`
	Hits     int       `json:"hits"`
	Stake    int64     `json:"stake"`
	Payout   int64     `json:"payout"`
	Bankroll int64     `json:"bankroll"`
}

// Net returns payout minus stake
func (o RaceOutcome) Net() int64 {
	return o.Payout - o.Stake
}

// SkippedRace is a race that was not bet on
type SkippedRace struct {
	RaceID string `json:"race_id"`
	Reason string `json:"reason"`
}

// BacktestState tracks current backtest state
type BacktestState struct {
	InitialBankroll int64
	CurrentBankroll int64
	PeakBankroll    int64
	Outcomes        []RaceOutcome
	Skipped         []SkippedRace
	EquityCurve     EquityCurve
}

// NewBacktestState initializes backtest state
func NewBacktestState(initialBankroll int64) *BacktestState {
	state := &BacktestState{
		InitialBankroll: initialBankroll,
		CurrentBankroll: initialBankroll,
		PeakBankroll:    initialBankroll,
		Outcomes:        []RaceOutcome{},
		Skipped:         []SkippedRace{},
		EquityCurve:     EquityCurve{},
	}
	state.RecordEquityPoint("", initialBankroll)
	return state
}

// UpdateState applies a settled race to the bankroll
func (s *BacktestState) UpdateState(outcome RaceOutcome) {
	s.CurrentBankroll += outcome.Net()
	if s.CurrentBankroll > s.PeakBankroll {
		s.PeakBankroll = s.CurrentBankroll
	}
	outcome.Bankroll = s.CurrentBankroll
	s.Outcomes = append(s.Outcomes, outcome)
	s.RecordEquityPoint(outcome.RaceID, s.CurrentBankroll)
}

// Skip records a race that was not bet on
func (s *BacktestState) Skip(raceID, reason string) {
	s.Skipped = append(s.Skipped, SkippedRace{RaceID: raceID, Reason: reason})
}

// GetCurrentDrawdown calculates peak-to-trough drawdown
func (s *BacktestState) GetCurrentDrawdown() float64 {
	if s.PeakBankroll == 0 {
		return 0
	}
	drawdown := float64(s.PeakBankroll-s.CurrentBankroll) / float64(s.PeakBankroll)
	if drawdown < 0 {
		return 0
	}
	return drawdown
}

// RecordEquityPoint adds an equity point to the curve
func (s *BacktestState) RecordEquityPoint(raceID string, value int64) {
	drawdown := 0.0
	if value < s.PeakBankroll && s.PeakBankroll > 0 {
		drawdown = float64(s.PeakBankroll-value) / float64(s.PeakBankroll)
	}
	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		Step:     len(s.EquityCurve),
		RaceID:   raceID,
		Value:    value,
		Drawdown: drawdown,
	})
}
