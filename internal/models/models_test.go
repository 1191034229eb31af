package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetTypeArityAndOrder(t *testing.T) {
	tests := []struct {
		betType BetType
		arity   int
		ordered bool
	}{
		{BetTypeWin, 1, false},
		{BetTypePlace, 1, false},
		{BetTypeQuinella, 2, false},
		{BetTypeExacta, 2, true},
		{BetTypeWide, 2, false},
		{BetTypeTrio, 3, false},
		{BetTypeTrifecta, 3, true},
		{BetType("bracket"), 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.betType), func(t *testing.T) {
			assert.Equal(t, tt.arity, tt.betType.Arity())
			assert.Equal(t, tt.ordered, tt.betType.IsOrdered())
		})
	}
}

func TestParseBetType(t *testing.T) {
	bt, err := ParseBetType("Exacta")
	require.NoError(t, err)
	assert.Equal(t, BetTypeExacta, bt)

	bt, err = ParseBetType("3連単")
	require.NoError(t, err)
	assert.Equal(t, BetTypeTrifecta, bt)

	_, err = ParseBetType("bracket")
	assert.True(t, errors.Is(err, ErrUnknownBetType))
}

func TestParseBetMethod(t *testing.T) {
	m, err := ParseBetMethod("流し")
	require.NoError(t, err)
	assert.Equal(t, BetMethodNagashi, m)

	_, err = ParseBetMethod("wheel")
	assert.ErrorIs(t, err, ErrUnknownBetMethod)
}

func TestValidateCombination(t *testing.T) {
	assert.NoError(t, ValidateCombination(BetTypeWin, BetMethodNormal))
	assert.NoError(t, ValidateCombination(BetTypeTrio, BetMethodFormation))
	assert.ErrorIs(t, ValidateCombination(BetTypePlace, BetMethodBox), ErrUnsupportedMethod)
	assert.ErrorIs(t, ValidateCombination(BetType("x"), BetMethodBox), ErrUnknownBetType)
	assert.ErrorIs(t, ValidateCombination(BetTypeWide, BetMethod("x")), ErrUnknownBetMethod)
}

func TestTicketKey(t *testing.T) {
	assert.Equal(t, NewTicket(BetTypeQuinella, 2, 1).Key(), NewTicket(BetTypeQuinella, 1, 2).Key())
	assert.NotEqual(t, NewTicket(BetTypeExacta, 2, 1).Key(), NewTicket(BetTypeExacta, 1, 2).Key())
	assert.Equal(t, "trio:1-5-9", NewTicket(BetTypeTrio, 9, 1, 5).Key())
}

func TestTicketString(t *testing.T) {
	assert.Equal(t, "3-1", NewTicket(BetTypeQuinella, 3, 1).String())
	assert.Equal(t, "3→1→7", NewTicket(BetTypeTrifecta, 3, 1, 7).String())
}

func TestTicketHasDuplicates(t *testing.T) {
	assert.True(t, NewTicket(BetTypeTrio, 1, 2, 1).HasDuplicates())
	assert.False(t, NewTicket(BetTypeTrio, 1, 2, 3).HasDuplicates())
}

func TestVenueFromRaceID(t *testing.T) {
	assert.Equal(t, "東京", VenueFromRaceID("202405020811"))
	assert.Equal(t, "小倉", VenueFromRaceID("202410010101"))
	assert.Equal(t, "その他", VenueFromRaceID("202444010101"))
	assert.Equal(t, "その他", VenueFromRaceID("2024"))
}

func TestRaceFavorites(t *testing.T) {
	race := Race{Horses: []Horse{
		{Number: 1, Odds: 12.5},
		{Number: 2, Odds: 0},
		{Number: 3, Odds: 2.1},
		{Number: 4, Odds: 5.0},
		{Number: 5, Odds: 2.1},
	}}

	fav := race.Favorites()
	require.Len(t, fav, 4)
	assert.Equal(t, []int{3, 5, 4, 1}, []int{fav[0].Number, fav[1].Number, fav[2].Number, fav[3].Number})
}

func TestRaceNumber(t *testing.T) {
	assert.Equal(t, 11, (&Race{Number: "11R"}).RaceNumber())
	assert.Equal(t, 0, (&Race{Number: "?"}).RaceNumber())
}

func TestValidateHorses(t *testing.T) {
	assert.NoError(t, ValidateHorses([]Horse{{Number: 1, Odds: 2}, {Number: 2}}))
	assert.ErrorIs(t, ValidateHorses([]Horse{{Number: 1}, {Number: 1}}), ErrInvalidHorse)
	assert.ErrorIs(t, ValidateHorses([]Horse{{Number: 0}}), ErrInvalidHorse)
	assert.ErrorIs(t, ValidateHorses([]Horse{{Number: 3, Odds: -1}}), ErrInvalidHorse)
}

func TestValidateStake(t *testing.T) {
	assert.NoError(t, ValidateStake(100, 100, 100))
	assert.NoError(t, ValidateStake(1200, 100, 100))
	assert.ErrorIs(t, ValidateStake(-100, 100, 100), ErrInvalidStake)
	assert.ErrorIs(t, ValidateStake(50, 100, 100), ErrStakeUnit)
	assert.ErrorIs(t, ValidateStake(150, 100, 100), ErrStakeUnit)
}

func TestSimulationResultReturnRate(t *testing.T) {
	r := &SimulationResult{TotalStake: 600, TotalPayout: 900}
	assert.InDelta(t, 150.0, r.ReturnRate(), 1e-9)
	assert.Zero(t, (&SimulationResult{}).ReturnRate())
}
