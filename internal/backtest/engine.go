package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
	"github.com/yourusername/keiba-sim/internal/models"
	"github.com/yourusername/keiba-sim/internal/strategy"
)

// Skip reasons
const (
	SkipOutOfRange    = "out of range"
	SkipNoResult      = "no result"
	SkipNoSignal      = "no signal"
	SkipInsufficient  = "insufficient bankroll"
	SkipInvalidResult = "invalid result"
)

// Engine orchestrates backtesting runs
type Engine struct {
	config    BacktestConfig
	source    datasource.RaceSource
	strategy  strategy.Strategy
	simulator *betting.Simulator
	logger    *logger.BacktestLogger
}

// NewEngine creates a new backtesting engine. A nil simulator uses the
// default estimator.
func NewEngine(cfg BacktestConfig, source datasource.RaceSource, strat strategy.Strategy, simulator *betting.Simulator, log *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("race source is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if simulator == nil {
		simulator = betting.NewSimulator(nil)
	}
	if log == nil {
		log = logrus.New()
	}

	return &Engine{
		config:    cfg,
		source:    source,
		strategy:  strat,
		simulator: simulator,
		logger:    logger.NewBacktestLogger(log),
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() BacktestConfig {
	return e.config
}

// Run replays every race once and computes metrics
func (e *Engine) Run(ctx context.Context) (*BacktestState, Metrics, error) {
	start := time.Now()
	runID := uuid.New()
	e.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"strategy": e.strategy.Name(),
		"start":    e.config.StartDate,
		"end":      e.config.EndDate,
	}).Info("Starting backtest run")

	state, err := e.HistoricalReplay(ctx, runID)
	if err != nil {
		metrics.RecordBacktestRun(e.strategy.Name(), "failure", time.Since(start).Seconds())
		return nil, Metrics{}, err
	}

	m := CalculateMetrics(state, e.config)
	m.RunID = runID
	m.Strategy = e.strategy.Name()
	m.ParameterHash = HashParameters(e.strategy.GetParameters())

	metrics.RecordBacktestRun(m.Strategy, "success", time.Since(start).Seconds())
	metrics.UpdateBacktestReturnRate(m.Strategy, m.ReturnRate)
	e.logger.LogRunCompleted(runID.String(), m.Strategy, m.Races, m.SkippedRaces, m.NetProfit, m.ReturnRate)
	return state, m, nil
}

// Evaluate runs the replay, resamples it and aggregates both into a verdict
func (e *Engine) Evaluate(ctx context.Context) (AggregatedResult, error) {
	state, m, err := e.Run(ctx)
	if err != nil {
		return AggregatedResult{}, err
	}
	mc, err := RunMonteCarlo(ctx, state.Outcomes, MonteCarloConfig{
		Iterations:      e.config.MonteCarloIterations,
		Seed:            e.config.Seed,
		InitialBankroll: e.config.InitialBankroll,
	})
	if err != nil {
		return AggregatedResult{}, fmt.Errorf("monte carlo failed: %w", err)
	}
	return AggregateResults(state, m, mc), nil
}

// HistoricalReplay replays finished races in source order and simulates betting
func (e *Engine) HistoricalReplay(ctx context.Context, runID uuid.UUID) (*BacktestState, error) {
	state := NewBacktestState(e.config.InitialBankroll)

	races, err := e.source.FetchRaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load races: %w", err)
	}

	for i := range races {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.processRace(ctx, runID, &races[i], state); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func (e *Engine) processRace(ctx context.Context, runID uuid.UUID, race *models.Race, state *BacktestState) error {
	if !e.config.InRange(race.Date) {
		e.skip(state, race.ID, SkipOutOfRange)
		return nil
	}
	if !race.IsFinished() {
		e.skip(state, race.ID, SkipNoResult)
		return nil
	}

	signals, err := e.strategy.Evaluate(ctx, strategy.Context{
		Race:     withoutResult(race),
		Bankroll: state.CurrentBankroll,
	})
	if err != nil {
		return fmt.Errorf("strategy evaluation failed for race %s: %w", race.ID, err)
	}

	outcome := RaceOutcome{
		RunID:  runID,
		RaceID: race.ID,
		Date:   race.Date,
		Venue:  race.Venue,
		Name:   race.Name,
	}
	reason := SkipNoSignal
	available := state.CurrentBankroll

	for _, signal := range signals {
		if !e.strategy.ShouldBet(signal) {
			continue
		}
		tickets, err := betting.GenerateTickets(signal.BetType, signal.Method, signal.Slots)
		if err != nil {
			return fmt.Errorf("invalid signal for race %s: %w", race.ID, err)
		}
		if len(tickets) == 0 {
			continue
		}

		stake := e.strategy.CalculateStake(signal, len(tickets), available)
		if stake <= 0 || models.ValidateStake(stake, e.config.MinStake, e.config.StakeUnit) != nil ||
			stake*int64(len(tickets)) > available {
			reason = SkipInsufficient
			continue
		}

		result, err := e.simulator.Simulate(tickets, race.Horses, stake)
		if err != nil {
			e.skip(state, race.ID, SkipInvalidResult)
			e.logger.WithError(err).WithField("race_id", race.ID).Warn("Race result rejected")
			return nil
		}

		available -= result.TotalStake
		outcome.Tickets += len(tickets)
		outcome.Hits += result.HitCount
		outcome.Stake += result.TotalStake
		outcome.Payout += result.TotalPayout
	}

	if outcome.Tickets == 0 {
		e.skip(state, race.ID, reason)
		return nil
	}

	state.UpdateState(outcome)
	e.logger.LogRaceSettled(race.ID, outcome.Tickets, outcome.Hits, outcome.Stake, outcome.Payout, state.CurrentBankroll)
	return nil
}

func (e *Engine) skip(state *BacktestState, raceID, reason string) {
	state.Skip(raceID, reason)
	e.logger.LogRaceSkipped(raceID, reason)
}

// withoutResult copies a race with finishing ranks cleared
func withoutResult(race *models.Race) *models.Race {
	blind := *race
	blind.Horses = make([]models.Horse, len(race.Horses))
	for i, h := range race.Horses {
		h.Rank = 0
		blind.Horses[i] = h
	}
	return &blind
}
