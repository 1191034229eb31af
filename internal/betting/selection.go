// Package betting implements the bet combination and payout engine: slot
// selection, ticket generation, odds estimation and result simulation.
// Everything here is synchronous and free of shared state.
package betting

import (
	"github.com/yourusername/keiba-sim/internal/models"
)

// Selection tracks the horses a user picked per slot for one bet type and method.
// It is owned by the caller; nothing in this package keeps one around.
type Selection struct {
	betType models.BetType
	method  models.BetMethod
	known   models.HorseIndex
	slots   models.SlotSelections
}

// NewSelection creates an empty selection over the given runners
func NewSelection(betType models.BetType, method models.BetMethod, horses []models.Horse) (*Selection, error) {
	if err := models.ValidateCombination(betType, method); err != nil {
		return nil, err
	}
	return &Selection{
		betType: betType,
		method:  method,
		known:   models.IndexHorses(horses),
		slots:   make(models.SlotSelections),
	}, nil
}

// BetType returns the bet type of the selection
func (s *Selection) BetType() models.BetType {
	return s.betType
}

// Method returns the bet method of the selection
func (s *Selection) Method() models.BetMethod {
	return s.method
}

// SlotCount returns the number of slots the method exposes for this bet type
func (s *Selection) SlotCount() int {
	return s.method.SlotCount(s.betType)
}

// Select applies the method's multiplicity rule for a horse in a slot.
// Unknown horses and slots outside the method's range are ignored.
func (s *Selection) Select(slot, number int) {
	if !s.known.Contains(number) || slot < 1 || slot > s.SlotCount() {
		return
	}

	if s.isMulti(slot) {
		s.toggle(slot, number)
		return
	}
	s.slots[slot] = []int{number}
}

// Deselect removes a horse from a slot if present
func (s *Selection) Deselect(slot, number int) {
	current := s.slots[slot]
	for i, n := range current {
		if n == number {
			s.slots[slot] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(s.slots[slot]) == 0 {
		delete(s.slots, slot)
	}
}

// Reset clears every slot
func (s *Selection) Reset() {
	s.slots = make(models.SlotSelections)
}

// Count returns the number of horses selected in a slot
func (s *Selection) Count(slot int) int {
	return len(s.slots[slot])
}

// IsSelected reports whether a horse is selected in a slot
func (s *Selection) IsSelected(slot, number int) bool {
	for _, n := range s.slots[slot] {
		if n == number {
			return true
		}
	}
	return false
}

// Slots returns a copy of the current slot selections
func (s *Selection) Slots() models.SlotSelections {
	return s.slots.Clone()
}

// Ready reports whether enough horses are selected to produce tickets
func (s *Selection) Ready() bool {
	switch s.method {
	case models.BetMethodBox:
		return s.Count(1) >= s.betType.Arity()
	case models.BetMethodNagashi:
		if s.Count(1) == 0 {
			return false
		}
		partners := 0
		for slot := 2; slot <= s.SlotCount(); slot++ {
			partners += s.Count(slot)
		}
		return partners >= s.betType.Arity()-1
	default:
		for slot := 1; slot <= s.SlotCount(); slot++ {
			if s.Count(slot) == 0 {
				return false
			}
		}
		return true
	}
}

// isMulti reports whether a slot accepts toggled multi-selection
func (s *Selection) isMulti(slot int) bool {
	switch s.method {
	case models.BetMethodBox:
		return true
	case models.BetMethodNagashi:
		return slot >= 2
	default:
		return false
	}
}

func (s *Selection) toggle(slot, number int) {
	if s.IsSelected(slot, number) {
		s.Deselect(slot, number)
		return
	}
	s.slots[slot] = append(s.slots[slot], number)
}
