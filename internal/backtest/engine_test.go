package backtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/models"
	"github.com/yourusername/keiba-sim/internal/strategy"
)

type fakeRaceSource struct {
	races []models.Race
	err   error
}

func (f *fakeRaceSource) Name() string { return "fake" }

func (f *fakeRaceSource) FetchRaces(ctx context.Context) ([]models.Race, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Race, len(f.races))
	for i, r := range f.races {
		out[i] = r
		out[i].Horses = append([]models.Horse(nil), r.Horses...)
	}
	return out, nil
}

func (f *fakeRaceSource) FetchHorses(ctx context.Context, raceID string) ([]models.Horse, error) {
	for _, r := range f.races {
		if r.ID == raceID {
			return r.Horses, nil
		}
	}
	return nil, errors.New("not found")
}

// peekingStrategy records whether it ever saw a rank
type peekingStrategy struct {
	*strategy.FavoritesStrategy
	sawRank bool
}

func (p *peekingStrategy) Evaluate(ctx context.Context, sc strategy.Context) ([]strategy.Signal, error) {
	for _, h := range sc.Race.Horses {
		if h.Rank != 0 {
			p.sawRank = true
		}
	}
	return p.FavoritesStrategy.Evaluate(ctx, sc)
}

func testRaces() []models.Race {
	return []models.Race{
		{
			ID: "A", Date: "2024-12-21", Venue: "中山",
			Horses: []models.Horse{
				{Number: 1, Odds: 2.0, Rank: 1},
				{Number: 2, Odds: 3.0, Rank: 2},
				{Number: 3, Odds: 5.0, Rank: 3},
				{Number: 4, Odds: 10.0, Rank: 4},
			},
		},
		{
			ID: "B", Date: "2024-12-22", Venue: "阪神",
			Horses: []models.Horse{
				{Number: 1, Odds: 2.0, Rank: 4},
				{Number: 2, Odds: 3.0, Rank: 3},
				{Number: 3, Odds: 5.0, Rank: 5},
				{Number: 4, Odds: 10.0, Rank: 1},
				{Number: 5, Odds: 20.0, Rank: 2},
			},
		},
		{
			ID: "C", Date: "2024-12-22",
			Horses: []models.Horse{
				{Number: 1, Odds: 2.0},
				{Number: 2, Odds: 3.0},
			},
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() BacktestConfig {
	return BacktestConfig{
		InitialBankroll:      10000,
		MinStake:             100,
		StakeUnit:            100,
		MonteCarloIterations: 200,
		Seed:                 7,
	}
}

func newTestEngine(t *testing.T, cfg BacktestConfig, races []models.Race) (*Engine, *peekingStrategy) {
	t.Helper()
	fav, err := strategy.NewFavoritesStrategy(models.BetTypeQuinella, models.BetMethodBox, 3)
	require.NoError(t, err)
	strat := &peekingStrategy{FavoritesStrategy: fav}
	engine, err := NewEngine(cfg, &fakeRaceSource{races: races}, strat, nil, quietLogger())
	require.NoError(t, err)
	return engine, strat
}

func TestEngineRun(t *testing.T) {
	engine, strat := newTestEngine(t, testConfig(), testRaces())

	state, m, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, strat.sawRank)

	require.Len(t, state.Outcomes, 2)
	a := state.Outcomes[0]
	assert.Equal(t, "A", a.RaceID)
	assert.Equal(t, 3, a.Tickets)
	assert.Equal(t, 1, a.Hits)
	assert.Equal(t, int64(300), a.Stake)
	// quinella 1-2: (2.0+3.0)*2.5 = 12.5
	assert.Equal(t, int64(1250), a.Payout)
	assert.Equal(t, int64(10950), a.Bankroll)

	b := state.Outcomes[1]
	assert.Equal(t, 0, b.Hits)
	assert.Equal(t, int64(10650), b.Bankroll)

	require.Len(t, state.Skipped, 1)
	assert.Equal(t, SkippedRace{RaceID: "C", Reason: SkipNoResult}, state.Skipped[0])

	assert.Equal(t, 2, m.Races)
	assert.Equal(t, 1, m.SkippedRaces)
	assert.Equal(t, int64(600), m.TotalStake)
	assert.Equal(t, int64(1250), m.TotalPayout)
	assert.Equal(t, int64(650), m.NetProfit)
	assert.InDelta(t, 208.33, m.ReturnRate, 0.01)
	assert.InDelta(t, 950.0/300.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 300.0/10950.0, m.MaxDrawdown, 1e-9)
	assert.Equal(t, int64(1250), m.LargestPayout)
	assert.Equal(t, "favorites_quinella_box", m.Strategy)
	assert.NotEmpty(t, m.ParameterHash)
}

func TestEngineDateWindow(t *testing.T) {
	cfg := testConfig()
	cfg.StartDate = time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC)
	cfg.EndDate = cfg.StartDate
	engine, _ := newTestEngine(t, cfg, testRaces())

	state, m, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Outcomes, 1)
	assert.Equal(t, "B", state.Outcomes[0].RaceID)
	assert.Equal(t, int64(9700), m.FinalBankroll)
	assert.Equal(t, SkipOutOfRange, state.Skipped[0].Reason)
}

func TestEngineInsufficientBankroll(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBankroll = 200
	engine, _ := newTestEngine(t, cfg, testRaces())

	state, m, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Outcomes)
	assert.Equal(t, 3, m.SkippedRaces)
	assert.Equal(t, SkipInsufficient, state.Skipped[0].Reason)
	assert.Equal(t, int64(200), m.FinalBankroll)
}

func TestEngineSourceError(t *testing.T) {
	fav, err := strategy.NewFavoritesStrategy(models.BetTypeWin, models.BetMethodNormal, 1)
	require.NoError(t, err)
	engine, err := NewEngine(testConfig(), &fakeRaceSource{err: errors.New("offline")}, fav, nil, quietLogger())
	require.NoError(t, err)

	_, _, err = engine.Run(context.Background())
	assert.ErrorContains(t, err, "offline")
}

func TestEngineCancelled(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(), testRaces())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineValidation(t *testing.T) {
	fav, err := strategy.NewFavoritesStrategy(models.BetTypeWin, models.BetMethodNormal, 1)
	require.NoError(t, err)

	_, err = NewEngine(testConfig(), nil, fav, nil, nil)
	assert.Error(t, err)
	_, err = NewEngine(testConfig(), &fakeRaceSource{}, nil, nil, nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.InitialBankroll = 0
	_, err = NewEngine(cfg, &fakeRaceSource{}, fav, nil, nil)
	assert.Error(t, err)
}

func TestEngineEvaluateAndReport(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(), testRaces())

	result, err := engine.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, result.MonteCarloResult.Iterations)
	assert.Len(t, result.Outcomes, 2)
	assert.Contains(t, []string{RecommendAccept, RecommendReject, RecommendNeedsReview}, result.Recommendation)

	var console bytes.Buffer
	require.NoError(t, WriteReport(result, ReportConsole, "", &console))
	assert.Contains(t, console.String(), "Return Rate: 208.33%")

	var csvOut bytes.Buffer
	require.NoError(t, WriteReport(result, ReportCSV, "", &csvOut))
	assert.Contains(t, csvOut.String(), "total_payout,1250")
	assert.Contains(t, csvOut.String(), "A,2024-12-21,中山,3,1,300,1250,10950")

	var htmlOut bytes.Buffer
	require.NoError(t, WriteReport(result, ReportHTML, "", &htmlOut))
	assert.Contains(t, htmlOut.String(), "<td>阪神</td>")

	var jsonOut bytes.Buffer
	require.NoError(t, WriteReport(result, ReportJSON, "", &jsonOut))
	var decoded AggregatedResult
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &decoded))
	assert.Equal(t, int64(650), decoded.HistoricalReplayMetrics.NetProfit)

	assert.Error(t, WriteReport(result, "pdf", "", io.Discard))
}

func TestWriteReportToFile(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(), testRaces())
	result, err := engine.Evaluate(context.Background())
	require.NoError(t, err)

	path := t.TempDir() + "/out/report.json"
	require.NoError(t, WriteReport(result, ReportJSON, path, io.Discard))
	assert.FileExists(t, path)
}
