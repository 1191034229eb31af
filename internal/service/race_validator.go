package service

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/models"
)

// RaceValidator checks provider data before it reaches the engine
type RaceValidator struct {
	logger *logrus.Entry
}

// NewRaceValidator creates a new race validator
func NewRaceValidator(logger *logrus.Entry) *RaceValidator {
	return &RaceValidator{logger: logger}
}

// ValidateRace returns every problem found in a race; an empty slice means usable
func (v *RaceValidator) ValidateRace(race *models.Race) []string {
	var problems []string

	if race.ID == "" {
		problems = append(problems, "race id is required")
	}
	if len(race.Horses) == 0 {
		problems = append(problems, "race has no runners")
	}

	seen := make(map[int]bool, len(race.Horses))
	for _, h := range race.Horses {
		if err := h.Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[h.Number] {
			problems = append(problems, fmt.Sprintf("duplicate horse number %d", h.Number))
		}
		seen[h.Number] = true
	}

	problems = append(problems, v.ValidateRanks(race.Horses)...)
	return problems
}

// ValidateRanks flags finishing orders that cannot be settled: ranks beyond
// the field size, or a result with no winner.
func (v *RaceValidator) ValidateRanks(horses []models.Horse) []string {
	var problems []string
	ranked := 0
	hasWinner := false
	for _, h := range horses {
		if !h.HasRank() {
			continue
		}
		ranked++
		if h.Rank == 1 {
			hasWinner = true
		}
		if h.Rank > len(horses) {
			problems = append(problems, fmt.Sprintf("horse %d rank %d exceeds field size %d", h.Number, h.Rank, len(horses)))
		}
	}
	if ranked > 0 && !hasWinner {
		problems = append(problems, "finishing order has no winner")
	}
	return problems
}

// FilterRaces drops races with problems and logs why
func (v *RaceValidator) FilterRaces(races []models.Race) []models.Race {
	valid := make([]models.Race, 0, len(races))
	for i := range races {
		problems := v.ValidateRace(&races[i])
		if len(problems) > 0 {
			if v.logger != nil {
				v.logger.WithFields(logrus.Fields{
					"race_id":  races[i].ID,
					"problems": problems,
				}).Warn("Skipping invalid race")
			}
			continue
		}
		valid = append(valid, races[i])
	}
	return valid
}
