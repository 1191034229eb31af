package betting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/models"
)

func numbersOf(tickets []models.Ticket) [][]int {
	out := make([][]int, len(tickets))
	for i, t := range tickets {
		out[i] = t.Numbers
	}
	return out
}

func TestGenerateTickets(t *testing.T) {
	tests := []struct {
		name    string
		betType models.BetType
		method  models.BetMethod
		slots   models.SlotSelections
		want    [][]int
	}{
		{
			name:    "win normal",
			betType: models.BetTypeWin,
			method:  models.BetMethodNormal,
			slots:   models.SlotSelections{1: {4}},
			want:    [][]int{{4}},
		},
		{
			name:    "quinella box",
			betType: models.BetTypeQuinella,
			method:  models.BetMethodBox,
			slots:   models.SlotSelections{1: {1, 2, 3}},
			want:    [][]int{{1, 2}, {1, 3}, {2, 3}},
		},
		{
			name:    "exacta box",
			betType: models.BetTypeExacta,
			method:  models.BetMethodBox,
			slots:   models.SlotSelections{1: {1, 2, 3}},
			want:    [][]int{{1, 2}, {2, 1}, {1, 3}, {3, 1}, {2, 3}, {3, 2}},
		},
		{
			name:    "quinella nagashi",
			betType: models.BetTypeQuinella,
			method:  models.BetMethodNagashi,
			slots:   models.SlotSelections{1: {5}, 2: {2, 7}},
			want:    [][]int{{5, 2}, {5, 7}},
		},
		{
			name:    "nagashi drops axis from partners",
			betType: models.BetTypeWide,
			method:  models.BetMethodNagashi,
			slots:   models.SlotSelections{1: {2}, 2: {2, 3, 4}},
			want:    [][]int{{2, 3}, {2, 4}},
		},
		{
			name:    "trifecta nagashi merges partner slots",
			betType: models.BetTypeTrifecta,
			method:  models.BetMethodNagashi,
			slots:   models.SlotSelections{1: {1}, 2: {2, 3}, 3: {3, 4}},
			want:    [][]int{{1, 2, 3}, {1, 2, 4}, {1, 3, 4}},
		},
		{
			name:    "exacta normal keeps slot order",
			betType: models.BetTypeExacta,
			method:  models.BetMethodNormal,
			slots:   models.SlotSelections{1: {3}, 2: {1}},
			want:    [][]int{{3, 1}},
		},
		{
			name:    "quinella normal is canonical",
			betType: models.BetTypeQuinella,
			method:  models.BetMethodNormal,
			slots:   models.SlotSelections{1: {3}, 2: {1}},
			want:    [][]int{{1, 3}},
		},
		{
			name:    "trio formation dedupes sets",
			betType: models.BetTypeTrio,
			method:  models.BetMethodFormation,
			slots:   models.SlotSelections{1: {1, 2}, 2: {2, 3}, 3: {3, 4}},
			want:    [][]int{{1, 2, 3}, {1, 2, 4}, {1, 3, 4}, {2, 3, 4}},
		},
		{
			name:    "trifecta formation",
			betType: models.BetTypeTrifecta,
			method:  models.BetMethodFormation,
			slots:   models.SlotSelections{1: {1, 2}, 2: {2, 3}, 3: {3, 4}},
			want:    [][]int{{1, 2, 3}, {1, 2, 4}, {1, 3, 4}, {2, 3, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets, err := GenerateTickets(tt.betType, tt.method, tt.slots)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbersOf(tickets))
			for _, ticket := range tickets {
				assert.Equal(t, tt.betType, ticket.BetType)
			}
		})
	}
}

func TestGenerateTicketsInsufficientSelections(t *testing.T) {
	tests := []struct {
		name    string
		betType models.BetType
		method  models.BetMethod
		slots   models.SlotSelections
	}{
		{"empty", models.BetTypeWin, models.BetMethodNormal, models.SlotSelections{}},
		{"box too small", models.BetTypeTrio, models.BetMethodBox, models.SlotSelections{1: {1, 2}}},
		{"missing slot", models.BetTypeExacta, models.BetMethodNormal, models.SlotSelections{1: {1}}},
		{"same horse twice", models.BetTypeQuinella, models.BetMethodNormal, models.SlotSelections{1: {1}, 2: {1}}},
		{"nagashi without axis", models.BetTypeQuinella, models.BetMethodNagashi, models.SlotSelections{2: {1, 2}}},
		{"nagashi too few partners", models.BetTypeTrio, models.BetMethodNagashi, models.SlotSelections{1: {1}, 2: {2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets, err := GenerateTickets(tt.betType, tt.method, tt.slots)
			require.NoError(t, err)
			assert.NotNil(t, tickets)
			assert.Empty(t, tickets)
		})
	}
}

func TestGenerateTicketsErrors(t *testing.T) {
	_, err := GenerateTickets(models.BetTypePlace, models.BetMethodBox, models.SlotSelections{1: {1, 2}})
	assert.ErrorIs(t, err, models.ErrUnsupportedMethod)

	_, err = GenerateTickets(models.BetType("bracket"), models.BetMethodNormal, models.SlotSelections{1: {1}})
	assert.ErrorIs(t, err, models.ErrUnknownBetType)
}

func TestUnorderedSlotSwapYieldsSameTicket(t *testing.T) {
	for _, bt := range []models.BetType{models.BetTypeQuinella, models.BetTypeWide} {
		for _, m := range []models.BetMethod{models.BetMethodNormal, models.BetMethodFormation} {
			a, err := GenerateTickets(bt, m, models.SlotSelections{1: {4}, 2: {9}})
			require.NoError(t, err)
			b, err := GenerateTickets(bt, m, models.SlotSelections{1: {9}, 2: {4}})
			require.NoError(t, err)

			require.Len(t, a, 1)
			assert.Equal(t, a, b)
		}
	}
}

func TestGeneratedTicketsHaveArityAndNoDuplicates(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5}
	slots := models.SlotSelections{1: pool, 2: pool, 3: pool}

	for _, bt := range models.AllBetTypes {
		for _, m := range models.AllBetMethods {
			if !m.Supports(bt) {
				continue
			}
			tickets, err := GenerateTickets(bt, m, slots)
			require.NoError(t, err)
			assert.NotEmpty(t, tickets, "%s/%s", bt, m)

			seen := make(map[string]bool)
			for _, ticket := range tickets {
				assert.Len(t, ticket.Numbers, bt.Arity())
				assert.False(t, ticket.HasDuplicates(), ticket.String())
				assert.False(t, seen[ticket.Key()], "duplicate ticket %s", ticket.Key())
				seen[ticket.Key()] = true
			}
		}
	}
}

func TestBoxCounts(t *testing.T) {
	slots := models.SlotSelections{1: {1, 2, 3, 4, 5}}
	want := map[models.BetType]int{
		models.BetTypeQuinella: 10,
		models.BetTypeExacta:   20,
		models.BetTypeWide:     10,
		models.BetTypeTrio:     10,
		models.BetTypeTrifecta: 60,
	}
	for bt, n := range want {
		count, err := CountTickets(bt, models.BetMethodBox, slots)
		require.NoError(t, err)
		assert.Equal(t, n, count, string(bt))
	}
}

func TestGenerateTicketsIsIdempotent(t *testing.T) {
	slots := models.SlotSelections{1: {7, 2, 5}, 2: {1, 7}, 3: {3, 2, 6}}
	first, err := GenerateTickets(models.BetTypeTrifecta, models.BetMethodFormation, slots)
	require.NoError(t, err)
	second, err := GenerateTickets(models.BetTypeTrifecta, models.BetMethodFormation, slots)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateTicketsFromSelection(t *testing.T) {
	sel, err := NewSelection(models.BetTypeExacta, models.BetMethodBox, testHorses())
	require.NoError(t, err)
	sel.Select(1, 3)
	sel.Select(1, 1)

	tickets, err := GenerateTickets(sel.BetType(), sel.Method(), sel.Slots())
	require.NoError(t, err)
	assert.Equal(t, [][]int{{3, 1}, {1, 3}}, numbersOf(tickets))
}
