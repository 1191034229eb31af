package backtest

import (
	"math"
	"testing"
)

func TestCalculateMetrics(t *testing.T) {
	state := NewBacktestState(10000)
	state.UpdateState(RaceOutcome{RaceID: "A", Tickets: 3, Hits: 1, Stake: 300, Payout: 1250})
	state.UpdateState(RaceOutcome{RaceID: "B", Tickets: 3, Stake: 300})
	state.UpdateState(RaceOutcome{RaceID: "C", Tickets: 1, Stake: 100})
	state.Skip("D", SkipNoResult)

	metrics := CalculateMetrics(state, BacktestConfig{InitialBankroll: 10000})
	if metrics.Races != 3 || metrics.SkippedRaces != 1 {
		t.Fatalf("expected 3 races and 1 skipped, got %d and %d", metrics.Races, metrics.SkippedRaces)
	}
	if metrics.FinalBankroll != 10550 {
		t.Fatalf("expected final bankroll 10550, got %d", metrics.FinalBankroll)
	}
	if metrics.LongestLosingStreak != 2 {
		t.Fatalf("expected losing streak 2, got %d", metrics.LongestLosingStreak)
	}
	if math.Abs(metrics.ProfitFactor-950.0/400.0) > 1e-9 {
		t.Fatalf("unexpected profit factor %f", metrics.ProfitFactor)
	}
	if math.Abs(metrics.MaxDrawdown-400.0/10950.0) > 1e-9 {
		t.Fatalf("unexpected max drawdown %f", metrics.MaxDrawdown)
	}
	if math.Abs(metrics.HitRate-1.0/7.0) > 1e-9 {
		t.Fatalf("unexpected hit rate %f", metrics.HitRate)
	}
	if metrics.TotalReturn <= 0 {
		t.Fatalf("expected positive return")
	}
}

func TestCalculateMetricsNoLosses(t *testing.T) {
	state := NewBacktestState(1000)
	state.UpdateState(RaceOutcome{RaceID: "A", Tickets: 1, Hits: 1, Stake: 100, Payout: 200})

	metrics := CalculateMetrics(state, BacktestConfig{InitialBankroll: 1000})
	if metrics.ProfitFactor != MaxProfitFactor {
		t.Fatalf("expected capped profit factor, got %f", metrics.ProfitFactor)
	}
	if metrics.ToJSON() == "" {
		t.Fatalf("expected metrics to encode")
	}
}

func TestCalculateMetricsEmpty(t *testing.T) {
	metrics := CalculateMetrics(NewBacktestState(5000), BacktestConfig{InitialBankroll: 5000})
	if metrics.ReturnRate != 0 || metrics.ProfitFactor != 0 || metrics.MaxDrawdown != 0 {
		t.Fatalf("expected zero metrics for an empty run")
	}
}

func TestHashParametersStable(t *testing.T) {
	a := HashParameters(map[string]interface{}{"pick_count": 3, "method": "box"})
	b := HashParameters(map[string]interface{}{"method": "box", "pick_count": 3})
	c := HashParameters(map[string]interface{}{"method": "box", "pick_count": 4})
	if a != b {
		t.Fatalf("expected key order not to matter")
	}
	if a == c {
		t.Fatalf("expected different parameters to hash differently")
	}
}

func TestEquityCurveExports(t *testing.T) {
	state := NewBacktestState(1000)
	state.UpdateState(RaceOutcome{RaceID: "A", Stake: 100})
	csv := state.EquityCurve.ToCSV()
	want := "step,race_id,value,drawdown\n0,,1000,0.000000\n1,A,900,0.100000\n"
	if csv != want {
		t.Fatalf("unexpected csv:\n%s", csv)
	}
	returns := state.EquityCurve.GetReturns()
	if len(returns) != 1 || math.Abs(returns[0]+0.1) > 1e-9 {
		t.Fatalf("unexpected returns %v", returns)
	}
}

func TestCompositeScoreAndRecommendation(t *testing.T) {
	strong := Metrics{ReturnRate: 160, ProfitFactor: 3, RaceHitRate: 1}
	if score := CalculateCompositeScore(strong); math.Abs(score-1.0) > 1e-9 {
		t.Fatalf("expected full score, got %f", score)
	}
	if got := GenerateRecommendation(0.9, 120, 0); got != RecommendAccept {
		t.Fatalf("expected accept, got %s", got)
	}
	if got := GenerateRecommendation(0.9, 70, 0); got != RecommendReject {
		t.Fatalf("expected reject, got %s", got)
	}
	if got := GenerateRecommendation(0.5, 95, 0.1); got != RecommendNeedsReview {
		t.Fatalf("expected review, got %s", got)
	}
}
