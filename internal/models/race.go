package models

import (
	"sort"
	"strconv"
	"strings"
)

// Race represents a race card with its runners
type Race struct {
	ID     string  `json:"id" validate:"required"`
	Date   string  `json:"date,omitempty"`
	Venue  string  `json:"venue,omitempty"`
	Number string  `json:"number,omitempty"`
	Name   string  `json:"name,omitempty"`
	Horses []Horse `json:"horses" validate:"dive"`
}

// jraVenues maps the place code embedded in a JRA race id to the course name
var jraVenues = map[string]string{
	"01": "札幌", "02": "函館", "03": "福島", "04": "新潟", "05": "東京",
	"06": "中山", "07": "中京", "08": "京都", "09": "阪神", "10": "小倉",
}

const unknownVenue = "その他"

// VenueFromRaceID resolves the course from a JRA race id such as 202405020811
func VenueFromRaceID(raceID string) string {
	if len(raceID) < 6 {
		return unknownVenue
	}
	if venue, ok := jraVenues[raceID[4:6]]; ok {
		return venue
	}
	return unknownVenue
}

// IsFinished checks if at least one horse has a finishing rank
func (r *Race) IsFinished() bool {
	for _, h := range r.Horses {
		if h.HasRank() {
			return true
		}
	}
	return false
}

// RaceNumber returns the numeric race number, 0 when it cannot be parsed ("11R" → 11)
func (r *Race) RaceNumber() int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(r.Number), "R"))
	if err != nil {
		return 0
	}
	return n
}

// SortHorses orders runners by horse number
func (r *Race) SortHorses() {
	sort.SliceStable(r.Horses, func(i, j int) bool {
		return r.Horses[i].Number < r.Horses[j].Number
	})
}

// Favorites returns the runners with known odds ordered by ascending odds.
// Ties keep horse number order.
func (r *Race) Favorites() []Horse {
	out := make([]Horse, 0, len(r.Horses))
	for _, h := range r.Horses {
		if h.HasOdds() {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Odds == out[j].Odds {
			return out[i].Number < out[j].Number
		}
		return out[i].Odds < out[j].Odds
	})
	return out
}
