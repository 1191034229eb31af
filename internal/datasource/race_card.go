package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
	"github.com/yourusername/keiba-sim/internal/models"
)

const raceCardSourceName = "race_card"

// RaceCardDocument is the published race card: one day of races with win odds
type RaceCardDocument struct {
	Date  string         `json:"date"`
	Races []RaceCardRace `json:"races"`
}

// RaceCardRace is one race of the card
type RaceCardRace struct {
	ID     string          `json:"id"`
	Venue  string          `json:"venue"`
	Number string          `json:"number"`
	Name   string          `json:"name"`
	Horses []RaceCardHorse `json:"horses"`
}

// RaceCardHorse is a runner; odds may be a number, a string or "---" for scratched horses
type RaceCardHorse struct {
	Number int             `json:"number"`
	Odds   json.RawMessage `json:"odds"`
	Name   string          `json:"name,omitempty"`
	Rank   int             `json:"rank,omitempty"`
}

// RaceCardProvider reads the race card document over HTTP (through the proxy
// chain) or from a local file
type RaceCardProvider struct {
	fetcher Fetcher
	url     string
	file    string
	logger  *logger.ProviderLogger
}

// NewRaceCardProvider creates a provider for a remote race card
func NewRaceCardProvider(fetcher Fetcher, url string, log *logger.ProviderLogger) *RaceCardProvider {
	return &RaceCardProvider{fetcher: fetcher, url: url, logger: log}
}

// NewRaceCardFileProvider creates a provider for a race card on disk
func NewRaceCardFileProvider(path string, log *logger.ProviderLogger) *RaceCardProvider {
	return &RaceCardProvider{file: path, logger: log}
}

// Name returns the name of the provider
func (p *RaceCardProvider) Name() string {
	return raceCardSourceName
}

// FetchRaces retrieves every race of the card
func (p *RaceCardProvider) FetchRaces(ctx context.Context) ([]models.Race, error) {
	start := time.Now()
	races, err := p.load(ctx)
	metrics.RecordProviderFetch(raceCardSourceName, err == nil, time.Since(start).Seconds())
	if err != nil {
		p.logger.LogFetchFailure(raceCardSourceName, "", err)
		return nil, err
	}
	p.logger.LogFetch(raceCardSourceName, "", len(races), float64(time.Since(start).Milliseconds()))
	return races, nil
}

// FetchHorses retrieves the runners of one race
func (p *RaceCardProvider) FetchHorses(ctx context.Context, raceID string) ([]models.Horse, error) {
	races, err := p.load(ctx)
	if err != nil {
		p.logger.LogFetchFailure(raceCardSourceName, raceID, err)
		return nil, err
	}
	return findRace(raceCardSourceName, races, raceID)
}

func (p *RaceCardProvider) load(ctx context.Context) ([]models.Race, error) {
	data, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	return ParseRaceCard(data)
}

func (p *RaceCardProvider) read(ctx context.Context) ([]byte, error) {
	if p.file != "" {
		data, err := os.ReadFile(p.file)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, NewProviderError(raceCardSourceName, ErrCodeNotFound, "race card file not found", err)
			}
			return nil, NewProviderError(raceCardSourceName, ErrCodeNetworkError, "failed to read race card file", err)
		}
		return data, nil
	}
	if p.fetcher == nil || p.url == "" {
		return nil, NewProviderError(raceCardSourceName, ErrCodeNotFound, "no race card url or file configured", nil)
	}
	return p.fetcher.Fetch(ctx, p.url)
}

// ParseRaceCard decodes and normalizes a race card document
func ParseRaceCard(data []byte) ([]models.Race, error) {
	var doc RaceCardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewProviderError(raceCardSourceName, ErrCodeInvalidData, "failed to parse race card", err)
	}

	races := make([]models.Race, 0, len(doc.Races))
	for _, rc := range doc.Races {
		race := models.Race{
			ID:     rc.ID,
			Date:   doc.Date,
			Venue:  rc.Venue,
			Number: rc.Number,
			Name:   rc.Name,
			Horses: make([]models.Horse, 0, len(rc.Horses)),
		}
		if race.Venue == "" {
			race.Venue = models.VenueFromRaceID(rc.ID)
		}
		for _, h := range rc.Horses {
			race.Horses = append(race.Horses, models.Horse{
				Number: h.Number,
				Odds:   parseOdds(string(h.Odds)),
				Name:   h.Name,
				Rank:   h.Rank,
			})
		}
		if err := models.ValidateHorses(race.Horses); err != nil {
			return nil, NewProviderError(raceCardSourceName, ErrCodeInvalidData, fmt.Sprintf("race %s", rc.ID), err)
		}
		race.SortHorses()
		races = append(races, race)
	}
	return races, nil
}
