// Package datasource provides odds providers: race cards fetched through CORS
// proxies, historical CSV files and a TTL cache in front of either.
package datasource

import (
	"context"

	"github.com/yourusername/keiba-sim/internal/models"
)

// OddsProvider returns the runners of a race with their win odds and,
// for finished races, their ranks. Failures are *ProviderError.
type OddsProvider interface {
	// FetchHorses retrieves the runners of one race
	FetchHorses(ctx context.Context, raceID string) ([]models.Horse, error)

	// Name returns the name of the provider
	Name() string
}

// RaceSource is a provider that can also list every race it knows about
type RaceSource interface {
	OddsProvider

	// FetchRaces retrieves all races with their runners
	FetchRaces(ctx context.Context) ([]models.Race, error)
}

// Fetcher retrieves a raw document for a target URL
type Fetcher interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// findRace returns the runners of raceID among races
func findRace(source string, races []models.Race, raceID string) ([]models.Horse, error) {
	for _, race := range races {
		if race.ID == raceID {
			horses := make([]models.Horse, len(race.Horses))
			copy(horses, race.Horses)
			return horses, nil
		}
	}
	return nil, NewProviderError(source, ErrCodeNotFound, "race "+raceID+" not found", nil)
}
