package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/models"
)

const csvSourceName = "csv"

// csvColumns maps accepted header names to canonical column keys
var csvColumns = map[string]string{
	"race_id":      "race_id",
	"date":         "date",
	"日付":           "date",
	"venue":        "venue",
	"開催":           "venue",
	"race_round":   "round",
	"レース":          "round",
	"race_title":   "title",
	"レース名":         "title",
	"horse_number": "number",
	"馬番":           "number",
	"horse_name":   "name",
	"馬名":           "name",
	"odds":         "odds",
	"単勝":           "odds",
	"rank":         "rank",
	"着順":           "rank",
}

var requiredCSVColumns = []string{"race_id", "number"}

// CSVProvider serves historical races from a header-row CSV export.
// The file is parsed once on first use.
type CSVProvider struct {
	path   string
	logger *logger.ProviderLogger

	once  sync.Once
	races []models.Race
	err   error
}

// NewCSVProvider creates a provider for a CSV file
func NewCSVProvider(path string, log *logger.ProviderLogger) *CSVProvider {
	return &CSVProvider{path: path, logger: log}
}

// Name returns the name of the provider
func (p *CSVProvider) Name() string {
	return csvSourceName
}

// FetchRaces returns every race in file order
func (p *CSVProvider) FetchRaces(ctx context.Context) ([]models.Race, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	races, err := p.load()
	if err != nil {
		p.logger.LogFetchFailure(csvSourceName, "", err)
		return nil, err
	}
	out := make([]models.Race, len(races))
	for i, r := range races {
		out[i] = r
		out[i].Horses = append([]models.Horse(nil), r.Horses...)
	}
	return out, nil
}

// FetchHorses returns the runners of one race
func (p *CSVProvider) FetchHorses(ctx context.Context, raceID string) ([]models.Horse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	races, err := p.load()
	if err != nil {
		p.logger.LogFetchFailure(csvSourceName, raceID, err)
		return nil, err
	}
	return findRace(csvSourceName, races, raceID)
}

func (p *CSVProvider) load() ([]models.Race, error) {
	p.once.Do(func() {
		f, err := os.Open(p.path)
		if err != nil {
			code := ErrCodeNetworkError
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			p.err = NewProviderError(csvSourceName, code, "failed to open "+p.path, err)
			return
		}
		defer f.Close()
		p.races, p.err = ParseRaceCSV(f)
	})
	return p.races, p.err
}

// ParseRaceCSV reads race rows grouped by race_id in first-seen order.
// Rows without a numeric horse number are skipped; non-numeric ranks
// (取消, 除外, 中止) and missing odds become 0.
func ParseRaceCSV(r io.Reader) ([]models.Race, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, NewProviderError(csvSourceName, ErrCodeInvalidData, "missing header row", err)
	}
	index := make(map[string]int)
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if key, ok := csvColumns[strings.ToLower(name)]; ok {
			if _, seen := index[key]; !seen {
				index[key] = i
			}
		}
	}
	for _, key := range requiredCSVColumns {
		if _, ok := index[key]; !ok {
			return nil, NewProviderError(csvSourceName, ErrCodeInvalidData, "missing column "+key, nil)
		}
	}

	field := func(record []string, key string) string {
		i, ok := index[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var races []models.Race
	position := make(map[string]int)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, NewProviderError(csvSourceName, ErrCodeInvalidData, fmt.Sprintf("line %d", line), err)
		}

		raceID := field(record, "race_id")
		number, err := strconv.Atoi(field(record, "number"))
		if raceID == "" || err != nil || number <= 0 {
			continue
		}

		i, ok := position[raceID]
		if !ok {
			i = len(races)
			position[raceID] = i
			venue := field(record, "venue")
			if venue == "" {
				venue = models.VenueFromRaceID(raceID)
			}
			races = append(races, models.Race{
				ID:     raceID,
				Date:   field(record, "date"),
				Venue:  venue,
				Number: field(record, "round"),
				Name:   field(record, "title"),
			})
		}

		races[i].Horses = append(races[i].Horses, models.Horse{
			Number: number,
			Name:   field(record, "name"),
			Odds:   parseOdds(field(record, "odds")),
			Rank:   parseRank(field(record, "rank")),
		})
	}

	for i := range races {
		races[i].SortHorses()
	}
	return races, nil
}

// parseOdds reads win odds; blanks, "---" and negative values become 0
func parseOdds(s string) float64 {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseRank reads a finishing position; "1(降)" style suffixes are dropped
func parseRank(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
