package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// TicketResult is the evaluation of one ticket against a finishing order
type TicketResult struct {
	Ticket        Ticket  `json:"ticket"`
	Hit           bool    `json:"hit"`
	EstimatedOdds float64 `json:"estimated_odds"`
	Payout        int64   `json:"payout"`
}

// SimulationResult aggregates stake and return over a set of tickets
type SimulationResult struct {
	RunID            uuid.UUID      `json:"run_id"`
	TicketsEvaluated []TicketResult `json:"tickets_evaluated"`
	StakePerTicket   int64          `json:"stake_per_ticket"`
	TotalStake       int64          `json:"total_stake"`
	TotalPayout      int64          `json:"total_payout"`
	NetProfit        int64          `json:"net_profit"`
	HitCount         int            `json:"hit_count"`
}

// ReturnRate returns payout as a percentage of stake (回収率)
func (r *SimulationResult) ReturnRate() float64 {
	if r.TotalStake == 0 {
		return 0
	}
	return float64(r.TotalPayout) / float64(r.TotalStake) * 100
}

// Hits returns only the winning tickets
func (r *SimulationResult) Hits() []TicketResult {
	var hits []TicketResult
	for _, tr := range r.TicketsEvaluated {
		if tr.Hit {
			hits = append(hits, tr)
		}
	}
	return hits
}

// ToJSON exports the result to JSON
func (r *SimulationResult) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}
