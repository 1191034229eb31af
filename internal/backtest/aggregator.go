package backtest

import (
	"encoding/json"
	"math"
)

// Recommendations
const (
	RecommendAccept      = "ACCEPT"
	RecommendReject      = "REJECT"
	RecommendNeedsReview = "NEEDS_REVIEW"
)

// AggregatedResult represents combined backtest outcomes
type AggregatedResult struct {
	Strategy                string           `json:"strategy"`
	HistoricalReplayMetrics Metrics          `json:"historical_replay_metrics"`
	MonteCarloResult        MonteCarloResult `json:"monte_carlo_result"`
	Outcomes                []RaceOutcome    `json:"outcomes"`
	Skipped                 []SkippedRace    `json:"skipped"`
	CompositeScore          float64          `json:"composite_score"`
	Recommendation          string           `json:"recommendation"`
}

// AggregateResults combines the replay and its resampling into one verdict
func AggregateResults(state *BacktestState, historical Metrics, monteCarlo MonteCarloResult) AggregatedResult {
	composite := CalculateCompositeScore(historical)*0.7 + normalize(monteCarlo.ProbabilityOfProfit, 0, 1)*0.3
	result := AggregatedResult{
		Strategy:                historical.Strategy,
		HistoricalReplayMetrics: historical,
		MonteCarloResult:        monteCarlo,
		CompositeScore:          composite,
		Recommendation:          GenerateRecommendation(composite, historical.ReturnRate, monteCarlo.ProbabilityOfRuin),
	}
	if state != nil {
		result.Outcomes = state.Outcomes
		result.Skipped = state.Skipped
	}
	return result
}

// CalculateCompositeScore scores a replay between 0 and 1
func CalculateCompositeScore(metrics Metrics) float64 {
	returnScore := normalize(metrics.ReturnRate, 50, 150)
	profitFactorScore := normalize(metrics.ProfitFactor, 0, 3)
	drawdownPenalty := 1.0 - normalize(metrics.MaxDrawdown, 0, 0.5)
	hitRateScore := normalize(metrics.RaceHitRate, 0, 1)

	weighted := 0.0
	weighted += returnScore * 0.40
	weighted += profitFactorScore * 0.20
	weighted += drawdownPenalty * 0.25
	weighted += hitRateScore * 0.15
	return weighted
}

// GenerateRecommendation determines if strategy is acceptable.
// returnRate is a percentage; 100 means break-even.
func GenerateRecommendation(score, returnRate, ruinProbability float64) string {
	if score > 0.7 && returnRate > 100 && ruinProbability < 0.05 {
		return RecommendAccept
	}
	if score < 0.4 || returnRate < 80 || ruinProbability > 0.25 {
		return RecommendReject
	}
	return RecommendNeedsReview
}

// ToJSON exports aggregated result to JSON
func (a AggregatedResult) ToJSON() string {
	data, _ := json.Marshal(a)
	return string(data)
}

func normalize(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	v := (value - min) / (max - min)
	return math.Max(0, math.Min(1, v))
}
