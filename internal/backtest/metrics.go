package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Metrics represents backtest performance metrics
type Metrics struct {
	RunID               uuid.UUID `json:"run_id"`
	Strategy            string    `json:"strategy"`
	Races               int       `json:"races"`
	SkippedRaces        int       `json:"skipped_races"`
	Tickets             int       `json:"tickets"`
	Hits                int       `json:"hits"`
	HitRate             float64   `json:"hit_rate"`
	RaceHitRate         float64   `json:"race_hit_rate"`
	TotalStake          int64     `json:"total_stake"`
	TotalPayout         int64     `json:"total_payout"`
	NetProfit           int64     `json:"net_profit"`
	ReturnRate          float64   `json:"return_rate"`
	InitialBankroll     int64     `json:"initial_bankroll"`
	FinalBankroll       int64     `json:"final_bankroll"`
	TotalReturn         float64   `json:"total_return"`
	MaxDrawdown         float64   `json:"max_drawdown"`
	SharpeRatio         float64   `json:"sharpe_ratio"`
	ValueAtRisk95       float64   `json:"var_95"`
	ProfitFactor        float64   `json:"profit_factor"`
	AverageStake        float64   `json:"average_stake"`
	LargestPayout       int64     `json:"largest_payout"`
	LongestLosingStreak int       `json:"longest_losing_streak"`
	StartDate           time.Time `json:"start_date,omitempty"`
	EndDate             time.Time `json:"end_date,omitempty"`
	ParameterHash       string    `json:"parameter_hash"`
}

// CalculateMetrics calculates metrics from backtest state
func CalculateMetrics(state *BacktestState, cfg BacktestConfig) Metrics {
	metrics := Metrics{
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
		InitialBankroll: cfg.InitialBankroll,
		FinalBankroll:   cfg.InitialBankroll,
	}
	if state == nil {
		return metrics
	}

	metrics.InitialBankroll = state.InitialBankroll
	metrics.FinalBankroll = state.CurrentBankroll
	metrics.Races = len(state.Outcomes)
	metrics.SkippedRaces = len(state.Skipped)

	var grossProfit, grossLoss int64
	racesHit := 0
	streak := 0
	for _, o := range state.Outcomes {
		metrics.Tickets += o.Tickets
		metrics.Hits += o.Hits
		metrics.TotalStake += o.Stake
		metrics.TotalPayout += o.Payout
		if o.Payout > metrics.LargestPayout {
			metrics.LargestPayout = o.Payout
		}
		if o.Hits > 0 {
			racesHit++
		}

		net := o.Net()
		switch {
		case net > 0:
			grossProfit += net
			streak = 0
		case net < 0:
			grossLoss -= net
			streak++
			if streak > metrics.LongestLosingStreak {
				metrics.LongestLosingStreak = streak
			}
		}
	}

	metrics.NetProfit = metrics.TotalPayout - metrics.TotalStake
	metrics.HitRate = ratio(float64(metrics.Hits), float64(metrics.Tickets))
	metrics.RaceHitRate = ratio(float64(racesHit), float64(metrics.Races))
	metrics.ReturnRate = ratio(float64(metrics.TotalPayout), float64(metrics.TotalStake)) * 100
	metrics.AverageStake = ratio(float64(metrics.TotalStake), float64(metrics.Races))
	metrics.TotalReturn = ratio(float64(metrics.FinalBankroll-metrics.InitialBankroll), float64(metrics.InitialBankroll))
	metrics.ProfitFactor = calculateProfitFactor(grossProfit, grossLoss)
	metrics.MaxDrawdown = state.EquityCurve.MaxDrawdown()

	returns := state.EquityCurve.GetReturns()
	metrics.SharpeRatio = calculateSharpeRatio(returns)
	metrics.ValueAtRisk95 = calculateVaR(returns, 0.95)

	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// HashParameters returns a stable digest of strategy parameters
func HashParameters(params map[string]interface{}) string {
	// json.Marshal sorts map keys
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:8])
}

// calculateSharpeRatio is per race, not annualized
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return average(returns) / std
}

func calculateVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MaxProfitFactor stands in for a run without losing races; JSON has no Inf
const MaxProfitFactor = 100.0

func calculateProfitFactor(grossProfit, grossLoss int64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return MaxProfitFactor
		}
		return 0
	}
	return math.Min(MaxProfitFactor, float64(grossProfit)/float64(grossLoss))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	_, std := meanStd(values)
	return std
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
