package betting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/models"
)

func horsesWithOdds(odds ...float64) []models.Horse {
	horses := make([]models.Horse, len(odds))
	for i, o := range odds {
		horses[i] = models.Horse{Number: i + 1, Odds: o}
	}
	return horses
}

func TestEstimateOddsSum(t *testing.T) {
	tests := []struct {
		betType models.BetType
		odds    []float64
		want    float64
	}{
		{models.BetTypeWin, []float64{4.0}, 4.0},
		{models.BetTypePlace, []float64{4.0}, 2.1},
		{models.BetTypePlace, []float64{2.2}, 1.7},
		{models.BetTypeQuinella, []float64{2.0, 3.0}, 12.5},
		{models.BetTypeExacta, []float64{2.0, 3.0}, 20.0},
		{models.BetTypeWide, []float64{2.0, 3.0}, 4.0},
		{models.BetTypeWide, []float64{1.3, 1.4}, 2.2},
		{models.BetTypeTrio, []float64{2.0, 3.0, 5.0}, 60.0},
		{models.BetTypeTrifecta, []float64{2.0, 3.0, 5.0}, 150.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.betType), func(t *testing.T) {
			got, err := EstimateOdds(tt.betType, horsesWithOdds(tt.odds...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimateOddsAverage(t *testing.T) {
	est, err := NewEstimator(AverageEstimatorConfig())
	require.NoError(t, err)

	got, err := est.EstimateOdds(models.BetTypeQuinella, horsesWithOdds(2.0, 3.0))
	require.NoError(t, err)
	assert.InDelta(t, 3.8, got, 1e-9)

	got, err = est.EstimateOdds(models.BetTypeTrio, horsesWithOdds(2.0, 3.0, 5.0))
	require.NoError(t, err)
	assert.InDelta(t, 16.7, got, 1e-9)

	got, err = est.EstimateOdds(models.BetTypeWin, horsesWithOdds(7.3))
	require.NoError(t, err)
	assert.InDelta(t, 7.3, got, 1e-9)
}

func TestEstimateOddsMissingOddsCountAsZero(t *testing.T) {
	got, err := EstimateOdds(models.BetTypeQuinella, horsesWithOdds(0, 3.0))
	require.NoError(t, err)
	assert.InDelta(t, 7.5, got, 1e-9)

	got, err = EstimateOdds(models.BetTypePlace, horsesWithOdds(0))
	require.NoError(t, err)
	assert.InDelta(t, 1.1, got, 1e-9)
}

func TestEstimateOddsErrors(t *testing.T) {
	_, err := EstimateOdds(models.BetTypeTrio, horsesWithOdds(2.0, 3.0))
	assert.ErrorIs(t, err, models.ErrArityMismatch)

	_, err = EstimateOdds(models.BetType("bracket"), horsesWithOdds(2.0))
	assert.ErrorIs(t, err, models.ErrUnknownBetType)
}

func TestEstimateTicketUsesIndex(t *testing.T) {
	index := models.IndexHorses(testHorses())
	got, err := DefaultEstimator().EstimateTicket(models.NewTicket(models.BetTypeExacta, 3, 1), index)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, got, 1e-9)

	got, err = DefaultEstimator().EstimateTicket(models.NewTicket(models.BetTypeQuinella, 3, 99), index)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-9)
}

func TestNewEstimatorValidation(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.Formula = "median"
	_, err := NewEstimator(cfg)
	assert.Error(t, err)

	cfg = DefaultEstimatorConfig()
	delete(cfg.Coefficients, models.BetTypeTrio)
	_, err = NewEstimator(cfg)
	assert.Error(t, err)

	cfg = DefaultEstimatorConfig()
	cfg.Coefficients[models.BetTypeWide] = -1
	_, err = NewEstimator(cfg)
	assert.Error(t, err)
}

func TestEstimatorConfigIsCopied(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	est, err := NewEstimator(cfg)
	require.NoError(t, err)

	cfg.Coefficients[models.BetTypeQuinella] = 100
	assert.Equal(t, 2.5, est.Config().Coefficients[models.BetTypeQuinella])
	assert.Equal(t, 2.5, DefaultSumCoefficients[models.BetTypeQuinella])
}

func TestPayout(t *testing.T) {
	tests := []struct {
		stake int64
		odds  float64
		want  int64
	}{
		{1000, 4.0, 4000},
		{100, 2.1, 210},
		{100, 3.75, 370},
		{150, 2.1, 310},
		{100, 12.5, 1250},
		{0, 5.0, 0},
		{-100, 5.0, 0},
		{100, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Payout(tt.stake, tt.odds), "stake=%d odds=%v", tt.stake, tt.odds)
	}
}
