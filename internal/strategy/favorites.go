package strategy

import (
	"context"
	"fmt"

	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/models"
)

// FavoritesStrategy bets on the market favorites of every race (人気順).
// PickCount is the number of favorites drawn into the purchase.
type FavoritesStrategy struct {
	BaseStrategy
	NameValue string
	BetType   models.BetType
	Method    models.BetMethod
	PickCount int
}

// NewFavoritesStrategy creates a favorites strategy with a 100 yen stake
func NewFavoritesStrategy(betType models.BetType, method models.BetMethod, pickCount int) (*FavoritesStrategy, error) {
	if err := models.ValidateCombination(betType, method); err != nil {
		return nil, err
	}
	minPick := betType.Arity()
	if method == models.BetMethodNagashi {
		minPick = betType.Arity() - 1
	}
	if pickCount < minPick {
		pickCount = minPick
	}
	return &FavoritesStrategy{
		BaseStrategy: BaseStrategy{
			StakePerTicket:      100,
			StakeUnit:           100,
			MaxBankrollFraction: 0.1,
		},
		NameValue: fmt.Sprintf("favorites_%s_%s", betType, method),
		BetType:   betType,
		Method:    method,
		PickCount: pickCount,
	}, nil
}

// NewFavoritesStrategyFromConfig builds the strategy described by backtest settings
func NewFavoritesStrategyFromConfig(cfg config.BacktestConfig, unit int64) (*FavoritesStrategy, error) {
	betType, err := models.ParseBetType(cfg.BetType)
	if err != nil {
		return nil, err
	}
	method, err := models.ParseBetMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	s, err := NewFavoritesStrategy(betType, method, cfg.PickCount)
	if err != nil {
		return nil, err
	}
	if cfg.StakePerTicket > 0 {
		s.StakePerTicket = cfg.StakePerTicket
	}
	if unit > 0 {
		s.StakeUnit = unit
	}
	return s, nil
}

// Name returns strategy name
func (s *FavoritesStrategy) Name() string {
	return s.NameValue
}

// Evaluate lays the favorites of the race out in the slots of the method.
// A race with too few priced runners yields no signal.
func (s *FavoritesStrategy) Evaluate(ctx context.Context, strategyCtx Context) ([]Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strategyCtx.Race == nil {
		return nil, fmt.Errorf("race is required")
	}

	arity := s.BetType.Arity()
	need := s.PickCount
	if s.Method == models.BetMethodNagashi {
		need = s.PickCount + 1
	}
	favorites := TopFavorites(strategyCtx.Race, need)
	if len(favorites) < arity {
		return nil, nil
	}

	slots := s.layout(numbersOf(favorites))
	if len(slots) == 0 {
		return nil, nil
	}

	return []Signal{{
		RaceID:       strategyCtx.Race.ID,
		BetType:      s.BetType,
		Method:       s.Method,
		Slots:        slots,
		FavoriteOdds: favorites[0].Odds,
		Reasoning:    fmt.Sprintf("top %d favorites by %s", len(favorites), s.Method),
	}}, nil
}

// layout maps favorites (shortest price first) to slots
func (s *FavoritesStrategy) layout(favorites []int) models.SlotSelections {
	arity := s.BetType.Arity()
	slots := make(models.SlotSelections)

	switch s.Method {
	case models.BetMethodBox:
		slots[1] = favorites
	case models.BetMethodNagashi:
		if len(favorites) < 2 {
			return nil
		}
		slots[1] = favorites[:1]
		slots[2] = favorites[1:]
	case models.BetMethodFormation:
		// first leg from the top two, later legs from the whole pick
		lead := 2
		if len(favorites) < lead {
			lead = len(favorites)
		}
		slots[1] = favorites[:lead]
		for slot := 2; slot <= arity; slot++ {
			slots[slot] = favorites
		}
	default:
		for slot := 1; slot <= arity; slot++ {
			slots[slot] = favorites[slot-1 : slot]
		}
	}
	return slots
}

// ShouldBet skips races whose favorite is outside the odds bounds
func (s *FavoritesStrategy) ShouldBet(signal Signal) bool {
	return s.ValidateOdds(signal.FavoriteOdds) == nil
}

// CalculateStake returns the per-ticket stake for a purchase of tickets
func (s *FavoritesStrategy) CalculateStake(signal Signal, tickets int, bankroll int64) int64 {
	return s.CapStake(s.StakePerTicket, tickets, bankroll)
}

// GetParameters returns strategy parameters
func (s *FavoritesStrategy) GetParameters() map[string]interface{} {
	return map[string]interface{}{
		"bet_type":              string(s.BetType),
		"method":                string(s.Method),
		"pick_count":            s.PickCount,
		"stake_per_ticket":      s.StakePerTicket,
		"min_odds":              s.MinOdds,
		"max_odds":              s.MaxOdds,
		"max_bankroll_fraction": s.MaxBankrollFraction,
	}
}
