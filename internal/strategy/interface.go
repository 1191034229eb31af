package strategy

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/keiba-sim/internal/models"
)

// Strategy defines the interface for backtesting strategies
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, strategyCtx Context) ([]Signal, error)
	ShouldBet(signal Signal) bool
	CalculateStake(signal Signal, tickets int, bankroll int64) int64
	GetParameters() map[string]interface{}
}

// Signal is a purchase a strategy wants to make on one race
type Signal struct {
	RaceID       string                `json:"race_id"`
	BetType      models.BetType        `json:"bet_type"`
	Method       models.BetMethod      `json:"method"`
	Slots        models.SlotSelections `json:"slots"`
	FavoriteOdds float64               `json:"favorite_odds"`
	Reasoning    string                `json:"reasoning"`
}

// Context is what a strategy sees of a race before the result is known
type Context struct {
	Race     *models.Race
	Bankroll int64
}

// StrategyMetadata describes a strategy for reports
type StrategyMetadata struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// MetadataOf builds metadata for a strategy with a fresh id
func MetadataOf(s Strategy, version, description string) StrategyMetadata {
	return StrategyMetadata{
		ID:          uuid.New(),
		Name:        s.Name(),
		Version:     version,
		Description: description,
		Parameters:  s.GetParameters(),
	}
}
