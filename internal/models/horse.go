package models

import "fmt"

// Horse represents a runner in a race with its win odds and finishing rank
type Horse struct {
	Number int     `json:"number" validate:"required,gt=0"`
	Odds   float64 `json:"odds" validate:"gte=0"`
	Name   string  `json:"name,omitempty"`
	Rank   int     `json:"rank,omitempty" validate:"gte=0"`
}

// HasOdds reports whether the win odds are known
func (h Horse) HasOdds() bool {
	return h.Odds > 0
}

// HasRank reports whether the horse has a finishing position
func (h Horse) HasRank() bool {
	return h.Rank > 0
}

// Validate performs basic validation on the horse
func (h Horse) Validate() error {
	if h.Number <= 0 {
		return fmt.Errorf("%w: horse number must be positive, got %d", ErrInvalidHorse, h.Number)
	}
	if h.Odds < 0 {
		return fmt.Errorf("%w: horse %d has negative odds", ErrInvalidHorse, h.Number)
	}
	if h.Rank < 0 {
		return fmt.Errorf("%w: horse %d has negative rank", ErrInvalidHorse, h.Number)
	}
	return nil
}

// HorseIndex maps horse numbers to horses for quick lookup.
type HorseIndex map[int]Horse

// IndexHorses builds a lookup index; the first horse wins on duplicate numbers
func IndexHorses(horses []Horse) HorseIndex {
	index := make(HorseIndex, len(horses))
	for _, h := range horses {
		if _, exists := index[h.Number]; !exists {
			index[h.Number] = h
		}
	}
	return index
}

// Lookup returns the horse for a number, or a zero-odds placeholder when unknown
func (idx HorseIndex) Lookup(number int) Horse {
	if h, ok := idx[number]; ok {
		return h
	}
	return Horse{Number: number}
}

// Contains reports whether the number belongs to a known horse
func (idx HorseIndex) Contains(number int) bool {
	_, ok := idx[number]
	return ok
}

// ValidateHorses checks every horse and rejects duplicate numbers
func ValidateHorses(horses []Horse) error {
	seen := make(map[int]bool, len(horses))
	for _, h := range horses {
		if err := h.Validate(); err != nil {
			return err
		}
		if seen[h.Number] {
			return fmt.Errorf("%w: duplicate horse number %d", ErrInvalidHorse, h.Number)
		}
		seen[h.Number] = true
	}
	return nil
}
