package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MonteCarloConfig configures monte carlo simulation
type MonteCarloConfig struct {
	Iterations      int
	Seed            int64
	InitialBankroll int64
}

// MonteCarloResult represents monte carlo outcomes
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo resamples settled races with replacement and replays each
// sample against the initial bankroll. A run that cannot cover the next
// race's stake is ruined.
func RunMonteCarlo(ctx context.Context, outcomes []RaceOutcome, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.InitialBankroll <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial bankroll must be positive")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	initial := float64(cfg.InitialBankroll)
	distribution := make([]float64, cfg.Iterations)
	if len(outcomes) == 0 {
		for i := range distribution {
			distribution[i] = initial
		}
	} else {
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < cfg.Iterations; i++ {
			if i%100 == 0 {
				if err := ctx.Err(); err != nil {
					return MonteCarloResult{}, err
				}
			}
			bankroll := cfg.InitialBankroll
			for range outcomes {
				o := outcomes[rng.Intn(len(outcomes))]
				if bankroll < o.Stake {
					bankroll = 0
					break
				}
				bankroll += o.Net()
			}
			distribution[i] = float64(bankroll)
		}
	}

	mean, std := meanStd(distribution)
	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		MeanReturn:          (mean - initial) / initial,
		StdReturn:           std / initial,
		VaR95:               (percentile(distribution, 0.05) - initial) / initial,
		VaR99:               (percentile(distribution, 0.01) - initial) / initial,
		ProbabilityOfProfit: probabilityAbove(distribution, initial),
		ProbabilityOfRuin:   probabilityAtOrBelow(distribution, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}, nil
}

// CalculateConfidenceIntervals returns the width of each central interval
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = high - low
	}
	return results
}

// ToJSON exports monte carlo result to JSON
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
