package betting

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/keiba-sim/internal/models"
)

// FinishOrder holds the horse numbers placed first to third; 0 means the place is unknown
type FinishOrder struct {
	First  int
	Second int
	Third  int
}

// FinishOrderOf extracts the top three finishers from ranked horses.
// It fails with models.ErrNoResultData when no horse has a rank.
func FinishOrderOf(horses []models.Horse) (FinishOrder, error) {
	var order FinishOrder
	ranked := false
	for _, h := range horses {
		if !h.HasRank() {
			continue
		}
		ranked = true
		switch {
		case h.Rank == 1 && order.First == 0:
			order.First = h.Number
		case h.Rank == 2 && order.Second == 0:
			order.Second = h.Number
		case h.Rank == 3 && order.Third == 0:
			order.Third = h.Number
		}
	}
	if !ranked {
		return order, models.ErrNoResultData
	}
	return order, nil
}

func (o FinishOrder) top() []int {
	var out []int
	for _, n := range []int{o.First, o.Second, o.Third} {
		if n != 0 {
			out = append(out, n)
		}
	}
	return out
}

// IsHit applies the bet type's hit rule to a ticket
func (o FinishOrder) IsHit(ticket models.Ticket) bool {
	n := ticket.Numbers
	if len(n) != ticket.BetType.Arity() || len(n) == 0 {
		return false
	}

	switch ticket.BetType {
	case models.BetTypeWin:
		return o.First != 0 && n[0] == o.First
	case models.BetTypePlace:
		return o.countIn(n) >= 1
	case models.BetTypeQuinella:
		return o.First != 0 && o.Second != 0 && ticket.Contains(o.First) && ticket.Contains(o.Second)
	case models.BetTypeExacta:
		return o.First != 0 && o.Second != 0 && n[0] == o.First && n[1] == o.Second
	case models.BetTypeWide:
		return o.countIn(n) >= 2
	case models.BetTypeTrio:
		return o.Third != 0 && o.countIn(n) == 3 && !ticket.HasDuplicates()
	case models.BetTypeTrifecta:
		return o.Third != 0 && n[0] == o.First && n[1] == o.Second && n[2] == o.Third
	default:
		return false
	}
}

// countIn counts the distinct top-three finishers present in numbers
func (o FinishOrder) countIn(numbers []int) int {
	count := 0
	for _, placed := range o.top() {
		for _, n := range numbers {
			if n == placed {
				count++
				break
			}
		}
	}
	return count
}

// Simulator evaluates tickets against a finishing order
type Simulator struct {
	estimator *Estimator
}

// NewSimulator creates a simulator; a nil estimator falls back to DefaultEstimator
func NewSimulator(estimator *Estimator) *Simulator {
	if estimator == nil {
		estimator = DefaultEstimator()
	}
	return &Simulator{estimator: estimator}
}

// Estimator returns the estimator used for payouts
func (s *Simulator) Estimator() *Estimator {
	return s.estimator
}

// Simulate scores tickets against the ranked horses with a fixed stake per ticket.
// Odds are estimated for every ticket; only hits pay out.
func (s *Simulator) Simulate(tickets []models.Ticket, horses []models.Horse, stakePerTicket int64) (*models.SimulationResult, error) {
	if stakePerTicket < 0 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidStake, stakePerTicket)
	}
	order, err := FinishOrderOf(horses)
	if err != nil {
		return nil, err
	}

	index := models.IndexHorses(horses)
	result := &models.SimulationResult{
		RunID:            uuid.New(),
		TicketsEvaluated: make([]models.TicketResult, 0, len(tickets)),
		StakePerTicket:   stakePerTicket,
		TotalStake:       stakePerTicket * int64(len(tickets)),
	}

	for _, ticket := range tickets {
		odds, err := s.estimator.EstimateTicket(ticket, index)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", ticket.Key(), err)
		}
		tr := models.TicketResult{
			Ticket:        ticket,
			Hit:           order.IsHit(ticket),
			EstimatedOdds: odds,
		}
		if tr.Hit {
			tr.Payout = Payout(stakePerTicket, odds)
			result.TotalPayout += tr.Payout
			result.HitCount++
		}
		result.TicketsEvaluated = append(result.TicketsEvaluated, tr)
	}

	result.NetProfit = result.TotalPayout - result.TotalStake
	return result, nil
}

// Simulate runs a simulation with the default estimator
func Simulate(tickets []models.Ticket, horses []models.Horse, stakePerTicket int64) (*models.SimulationResult, error) {
	return NewSimulator(nil).Simulate(tickets, horses, stakePerTicket)
}
