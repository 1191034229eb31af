package betting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/models"
)

// rankedHorses finishes 3, 1, 7.
func rankedHorses() []models.Horse {
	horses := testHorses()
	ranks := map[int]int{3: 1, 1: 2, 7: 3, 5: 4, 2: 5}
	for i := range horses {
		horses[i].Rank = ranks[horses[i].Number]
	}
	return horses
}

func TestFinishOrderHitRules(t *testing.T) {
	order, err := FinishOrderOf(rankedHorses())
	require.NoError(t, err)
	assert.Equal(t, FinishOrder{First: 3, Second: 1, Third: 7}, order)

	tests := []struct {
		betType models.BetType
		numbers []int
		hit     bool
	}{
		{models.BetTypeWin, []int{3}, true},
		{models.BetTypeWin, []int{1}, false},
		{models.BetTypePlace, []int{7}, true},
		{models.BetTypePlace, []int{5}, false},
		{models.BetTypeQuinella, []int{3, 1}, true},
		{models.BetTypeQuinella, []int{1, 3}, true},
		{models.BetTypeQuinella, []int{3, 7}, false},
		{models.BetTypeExacta, []int{3, 1}, true},
		{models.BetTypeExacta, []int{1, 3}, false},
		{models.BetTypeWide, []int{1, 7}, true},
		{models.BetTypeWide, []int{7, 3}, true},
		{models.BetTypeWide, []int{3, 5}, false},
		{models.BetTypeTrio, []int{7, 3, 1}, true},
		{models.BetTypeTrio, []int{3, 1, 5}, false},
		{models.BetTypeTrifecta, []int{3, 1, 7}, true},
		{models.BetTypeTrifecta, []int{1, 3, 7}, false},
	}

	for _, tt := range tests {
		ticket := models.NewTicket(tt.betType, tt.numbers...)
		assert.Equal(t, tt.hit, order.IsHit(ticket), "%s %v", tt.betType, tt.numbers)
	}
}

func TestFinishOrderPartialResult(t *testing.T) {
	order, err := FinishOrderOf([]models.Horse{{Number: 3, Rank: 1}, {Number: 1}})
	require.NoError(t, err)

	assert.True(t, order.IsHit(models.NewTicket(models.BetTypeWin, 3)))
	assert.False(t, order.IsHit(models.NewTicket(models.BetTypeQuinella, 3, 1)))
	assert.False(t, order.IsHit(models.NewTicket(models.BetTypeWide, 3, 1)))
	assert.False(t, order.IsHit(models.NewTicket(models.BetTypeTrio, 3, 1, 2)))
}

func TestSimulate(t *testing.T) {
	tickets := []models.Ticket{
		models.NewTicket(models.BetTypeQuinella, 3, 1),
		models.NewTicket(models.BetTypeQuinella, 3, 7),
	}

	result, err := Simulate(tickets, rankedHorses(), 100)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, int64(100), result.StakePerTicket)
	assert.Equal(t, int64(200), result.TotalStake)
	assert.Equal(t, int64(1500), result.TotalPayout)
	assert.Equal(t, int64(1300), result.NetProfit)
	assert.Equal(t, 1, result.HitCount)
	assert.InDelta(t, 750.0, result.ReturnRate(), 1e-9)

	require.Len(t, result.TicketsEvaluated, 2)
	assert.True(t, result.TicketsEvaluated[0].Hit)
	assert.InDelta(t, 15.0, result.TicketsEvaluated[0].EstimatedOdds, 1e-9)
	assert.Equal(t, int64(1500), result.TicketsEvaluated[0].Payout)
	assert.False(t, result.TicketsEvaluated[1].Hit)
	assert.InDelta(t, 30.0, result.TicketsEvaluated[1].EstimatedOdds, 1e-9)
	assert.Zero(t, result.TicketsEvaluated[1].Payout)
}

func TestSimulateWin(t *testing.T) {
	result, err := Simulate([]models.Ticket{models.NewTicket(models.BetTypeWin, 3)}, rankedHorses(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), result.TotalPayout)
	assert.Equal(t, int64(1000), result.NetProfit)
}

func TestSimulateNoResultData(t *testing.T) {
	tickets := []models.Ticket{models.NewTicket(models.BetTypeWin, 3)}
	result, err := Simulate(tickets, testHorses(), 100)
	assert.ErrorIs(t, err, models.ErrNoResultData)
	assert.Nil(t, result)
}

func TestSimulateNegativeStake(t *testing.T) {
	_, err := Simulate(nil, rankedHorses(), -100)
	assert.ErrorIs(t, err, models.ErrInvalidStake)
}

func TestSimulateNoTickets(t *testing.T) {
	result, err := Simulate(nil, rankedHorses(), 100)
	require.NoError(t, err)
	assert.Zero(t, result.TotalStake)
	assert.Zero(t, result.TotalPayout)
	assert.Zero(t, result.HitCount)
	assert.Empty(t, result.TicketsEvaluated)
}

func TestSimulateAllMiss(t *testing.T) {
	tickets, err := GenerateTickets(models.BetTypeTrifecta, models.BetMethodBox, models.SlotSelections{1: {2, 4, 5}})
	require.NoError(t, err)
	require.Len(t, tickets, 6)

	result, err := Simulate(tickets, rankedHorses(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(600), result.TotalStake)
	assert.Equal(t, int64(-600), result.NetProfit)
	assert.Empty(t, result.Hits())
}

func TestSimulatorWithAverageEstimator(t *testing.T) {
	est, err := NewEstimator(AverageEstimatorConfig())
	require.NoError(t, err)
	sim := NewSimulator(est)

	result, err := sim.Simulate([]models.Ticket{models.NewTicket(models.BetTypeExacta, 3, 1)}, rankedHorses(), 100)
	require.NoError(t, err)
	// (2.0 + 4.0) / 2 * 2.0
	assert.InDelta(t, 6.0, result.TicketsEvaluated[0].EstimatedOdds, 1e-9)
	assert.Equal(t, int64(600), result.TotalPayout)
}
