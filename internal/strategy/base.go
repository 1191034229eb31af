package strategy

import (
	"fmt"

	"github.com/yourusername/keiba-sim/internal/models"
)

// BaseStrategy provides shared functionality for strategies
type BaseStrategy struct {
	MinOdds             float64
	MaxOdds             float64
	StakePerTicket      int64
	StakeUnit           int64
	MaxBankrollFraction float64
}

// ValidateOdds ensures odds are within acceptable bounds
func (b *BaseStrategy) ValidateOdds(odds float64) error {
	if odds <= 1.0 {
		return fmt.Errorf("odds must be greater than 1.0")
	}
	if b.MinOdds > 0 && odds < b.MinOdds {
		return fmt.Errorf("odds below minimum")
	}
	if b.MaxOdds > 0 && odds > b.MaxOdds {
		return fmt.Errorf("odds above maximum")
	}
	return nil
}

// RoundToUnit rounds a stake down to the purchase unit
func (b *BaseStrategy) RoundToUnit(stake int64) int64 {
	if stake <= 0 {
		return 0
	}
	if b.StakeUnit <= 0 {
		return stake
	}
	return stake / b.StakeUnit * b.StakeUnit
}

// CapStake lowers the per-ticket stake so the whole purchase stays within
// MaxBankrollFraction of the bankroll; 0 means the race should be skipped.
func (b *BaseStrategy) CapStake(stake int64, tickets int, bankroll int64) int64 {
	if tickets <= 0 || bankroll <= 0 {
		return 0
	}
	budget := bankroll
	if b.MaxBankrollFraction > 0 && b.MaxBankrollFraction < 1 {
		budget = int64(float64(bankroll) * b.MaxBankrollFraction)
	}
	if stake*int64(tickets) > budget {
		stake = budget / int64(tickets)
	}
	return b.RoundToUnit(stake)
}

// TopFavorites returns up to n runners with known odds, shortest price first
func TopFavorites(race *models.Race, n int) []models.Horse {
	favorites := race.Favorites()
	if n >= 0 && len(favorites) > n {
		favorites = favorites[:n]
	}
	return favorites
}

func numbersOf(horses []models.Horse) []int {
	numbers := make([]int, len(horses))
	for i, h := range horses {
		numbers[i] = h.Number
	}
	return numbers
}
