package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
	"github.com/yourusername/keiba-sim/internal/models"
)

// TicketRequest describes a selection on one race
type TicketRequest struct {
	RaceID  string
	BetType models.BetType
	Method  models.BetMethod
	// Slots holds the horse numbers picked per slot, slot 1 first
	Slots [][]int
}

// SimulationRequest is a TicketRequest plus the stake per ticket.
// A zero Stake uses the configured default.
type SimulationRequest struct {
	TicketRequest
	Stake int64
}

// Estimate is the estimated odds and payout of a single ticket
type Estimate struct {
	Ticket models.Ticket `json:"ticket"`
	Odds   float64       `json:"estimated_odds"`
	Stake  int64         `json:"stake"`
	Payout int64         `json:"payout"`
}

// SimulationService connects an odds provider to the betting engine
type SimulationService struct {
	provider  datasource.OddsProvider
	simulator *betting.Simulator
	cfg       config.SimulationConfig
	validator *RaceValidator
	stats     *SessionStats
	logger    *logger.SimulationLogger
}

// NewSimulationService creates a service; a nil estimator uses the default formula
func NewSimulationService(provider datasource.OddsProvider, estimator *betting.Estimator, cfg config.SimulationConfig, log *logrus.Logger) *SimulationService {
	simLog := logger.NewSimulationLogger(log)
	return &SimulationService{
		provider:  provider,
		simulator: betting.NewSimulator(estimator),
		cfg:       cfg,
		validator: NewRaceValidator(simLog.Entry),
		stats:     NewSessionStats(),
		logger:    simLog,
	}
}

// Races lists the races of the provider, dropping ones that fail validation
func (s *SimulationService) Races(ctx context.Context) ([]models.Race, error) {
	source, ok := s.provider.(datasource.RaceSource)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list races", s.provider.Name())
	}
	races, err := source.FetchRaces(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.FilterRaces(races), nil
}

// Horses fetches and validates the runners of a race
func (s *SimulationService) Horses(ctx context.Context, raceID string) ([]models.Horse, error) {
	horses, err := s.provider.FetchHorses(ctx, raceID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateHorses(horses); err != nil {
		return nil, fmt.Errorf("race %s: %w", raceID, err)
	}
	return horses, nil
}

// BuildSelection applies the requested picks to a fresh selection
func (s *SimulationService) BuildSelection(req TicketRequest, horses []models.Horse) (*betting.Selection, error) {
	sel, err := betting.NewSelection(req.BetType, req.Method, horses)
	if err != nil {
		return nil, err
	}
	if len(req.Slots) > sel.SlotCount() {
		return nil, fmt.Errorf("%w: %s %s has %d slots, got %d",
			models.ErrArityMismatch, req.Method, req.BetType, sel.SlotCount(), len(req.Slots))
	}

	index := models.IndexHorses(horses)
	for i, numbers := range req.Slots {
		multi := req.Method == models.BetMethodBox || (req.Method == models.BetMethodNagashi && i > 0)
		if !multi && len(numbers) > 1 {
			return nil, fmt.Errorf("%w: slot %d takes one horse, got %d", models.ErrArityMismatch, i+1, len(numbers))
		}
		for _, n := range numbers {
			if !index.Contains(n) {
				return nil, fmt.Errorf("%w: horse %d is not running in race %s", models.ErrInvalidHorse, n, req.RaceID)
			}
			if !sel.IsSelected(i+1, n) {
				sel.Select(i+1, n)
			}
		}
	}
	return sel, nil
}

// Tickets expands a request into tickets. An incomplete selection yields no tickets.
func (s *SimulationService) Tickets(ctx context.Context, req TicketRequest) ([]models.Ticket, []models.Horse, error) {
	horses, err := s.Horses(ctx, req.RaceID)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := s.ticketsFor(req, horses)
	if err != nil {
		return nil, nil, err
	}
	return tickets, horses, nil
}

func (s *SimulationService) ticketsFor(req TicketRequest, horses []models.Horse) ([]models.Ticket, error) {
	sel, err := s.BuildSelection(req, horses)
	if err != nil {
		return nil, err
	}
	if !sel.Ready() {
		return []models.Ticket{}, nil
	}
	tickets, err := betting.GenerateTickets(sel.BetType(), sel.Method(), sel.Slots())
	if err != nil {
		return nil, err
	}
	s.logger.LogTicketsGenerated(req.RaceID, string(req.BetType), string(req.Method), len(tickets))
	metrics.RecordTicketsGenerated(string(req.BetType), string(req.Method), len(tickets))
	return tickets, nil
}

// Estimate prices one ticket from the current odds of a race
func (s *SimulationService) Estimate(ctx context.Context, raceID string, betType models.BetType, numbers []int, stake int64) (*Estimate, error) {
	stake, err := s.resolveStake(stake)
	if err != nil {
		return nil, err
	}
	horses, err := s.Horses(ctx, raceID)
	if err != nil {
		return nil, err
	}

	ticket := models.NewTicket(betType, numbers...)
	if betType.IsValid() {
		if len(numbers) != betType.Arity() {
			return nil, fmt.Errorf("%w: %s takes %d horses, got %d", models.ErrArityMismatch, betType, betType.Arity(), len(numbers))
		}
		if ticket.HasDuplicates() {
			return nil, fmt.Errorf("%w: ticket %s repeats a horse", models.ErrInvalidHorse, ticket)
		}
	}

	index := models.IndexHorses(horses)
	for _, n := range numbers {
		if !index.Contains(n) {
			return nil, fmt.Errorf("%w: horse %d is not running in race %s", models.ErrInvalidHorse, n, raceID)
		}
	}

	odds, err := s.simulator.Estimator().EstimateTicket(ticket, index)
	if err != nil {
		return nil, err
	}
	return &Estimate{
		Ticket: ticket,
		Odds:   odds,
		Stake:  stake,
		Payout: betting.Payout(stake, odds),
	}, nil
}

// Simulate buys every ticket of the request and settles them against the race result
func (s *SimulationService) Simulate(ctx context.Context, req SimulationRequest) (*models.SimulationResult, error) {
	start := time.Now()
	betType := string(req.BetType)

	stake, err := s.resolveStake(req.Stake)
	if err != nil {
		metrics.RecordSimulationOutcome(betType, "invalid")
		return nil, err
	}

	horses, err := s.Horses(ctx, req.RaceID)
	if err != nil {
		var perr *datasource.ProviderError
		if errors.As(err, &perr) {
			metrics.RecordSimulationOutcome(betType, "provider_error")
		} else {
			metrics.RecordSimulationOutcome(betType, "invalid")
		}
		return nil, err
	}

	tickets, err := s.ticketsFor(req.TicketRequest, horses)
	if err != nil {
		s.stats.RecordRejected()
		metrics.RecordSimulationOutcome(betType, "invalid")
		return nil, err
	}

	return s.settle(req.RaceID, req.BetType, tickets, horses, stake, start)
}

// SimulateRace settles prepared tickets against a race already in hand
func (s *SimulationService) SimulateRace(race models.Race, betType models.BetType, tickets []models.Ticket, stake int64) (*models.SimulationResult, error) {
	stake, err := s.resolveStake(stake)
	if err != nil {
		metrics.RecordSimulationOutcome(string(betType), "invalid")
		return nil, err
	}
	return s.settle(race.ID, betType, tickets, race.Horses, stake, time.Now())
}

func (s *SimulationService) settle(raceID string, betType models.BetType, tickets []models.Ticket, horses []models.Horse, stake int64, start time.Time) (*models.SimulationResult, error) {
	result, err := s.simulator.Simulate(tickets, horses, stake)
	if err != nil {
		if errors.Is(err, models.ErrNoResultData) {
			s.stats.RecordNoResult()
			s.logger.LogNoResult(raceID)
			metrics.RecordSimulationOutcome(string(betType), "no_result")
		} else {
			metrics.RecordSimulationOutcome(string(betType), "invalid")
		}
		return nil, err
	}

	elapsed := time.Since(start)
	s.stats.RecordResult(result)
	s.logger.LogSimulation(result.RunID.String(), raceID, string(betType), len(result.TicketsEvaluated),
		result.HitCount, result.TotalStake, result.TotalPayout, result.ReturnRate(), float64(elapsed.Milliseconds()))
	metrics.RecordSimulation(string(betType), len(result.TicketsEvaluated), result.HitCount,
		result.TotalStake, result.TotalPayout, result.ReturnRate(), elapsed.Seconds())
	return result, nil
}

// resolveStake applies the default stake and the purchase unit rule
func (s *SimulationService) resolveStake(stake int64) (int64, error) {
	if stake == 0 {
		stake = s.cfg.StakePerTicket
	}
	if err := models.ValidateStake(stake, s.cfg.MinStake, s.cfg.StakeUnit); err != nil {
		s.stats.RecordRejected()
		s.logger.LogStakeRejected(stake, err.Error())
		return 0, err
	}
	return stake, nil
}

// Stats returns the totals accumulated by this service
func (s *SimulationService) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Simulator returns the engine used for settlement
func (s *SimulationService) Simulator() *betting.Simulator {
	return s.simulator
}
