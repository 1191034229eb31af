package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BetType represents the kind of ticket (win, place, quinella, ...)
type BetType string

const (
	BetTypeWin      BetType = "win"
	BetTypePlace    BetType = "place"
	BetTypeQuinella BetType = "quinella"
	BetTypeExacta   BetType = "exacta"
	BetTypeWide     BetType = "wide"
	BetTypeTrio     BetType = "trio"
	BetTypeTrifecta BetType = "trifecta"
)

// BetMethod represents how slot selections expand into tickets
type BetMethod string

const (
	BetMethodNormal    BetMethod = "normal"
	BetMethodBox       BetMethod = "box"
	BetMethodNagashi   BetMethod = "nagashi"
	BetMethodFormation BetMethod = "formation"
)

// AllBetTypes lists bet types in display order.
var AllBetTypes = []BetType{
	BetTypeWin, BetTypePlace, BetTypeQuinella, BetTypeExacta, BetTypeWide, BetTypeTrio, BetTypeTrifecta,
}

// AllBetMethods lists bet methods in display order.
var AllBetMethods = []BetMethod{
	BetMethodNormal, BetMethodBox, BetMethodNagashi, BetMethodFormation,
}

var betTypeAliases = map[string]BetType{
	"win":      BetTypeWin,
	"単勝":       BetTypeWin,
	"place":    BetTypePlace,
	"複勝":       BetTypePlace,
	"quinella": BetTypeQuinella,
	"馬連":       BetTypeQuinella,
	"exacta":   BetTypeExacta,
	"馬単":       BetTypeExacta,
	"wide":     BetTypeWide,
	"ワイド":      BetTypeWide,
	"trio":     BetTypeTrio,
	"3連複":      BetTypeTrio,
	"三連複":      BetTypeTrio,
	"trifecta": BetTypeTrifecta,
	"3連単":      BetTypeTrifecta,
	"三連単":      BetTypeTrifecta,
}

var betMethodAliases = map[string]BetMethod{
	"normal":    BetMethodNormal,
	"通常":        BetMethodNormal,
	"box":       BetMethodBox,
	"ボックス":      BetMethodBox,
	"nagashi":   BetMethodNagashi,
	"流し":        BetMethodNagashi,
	"formation": BetMethodFormation,
	"フォーメーション": BetMethodFormation,
}

var japaneseBetTypeNames = map[BetType]string{
	BetTypeWin:      "単勝",
	BetTypePlace:    "複勝",
	BetTypeQuinella: "馬連",
	BetTypeExacta:   "馬単",
	BetTypeWide:     "ワイド",
	BetTypeTrio:     "3連複",
	BetTypeTrifecta: "3連単",
}

// ParseBetType parses an English or Japanese bet type name
func ParseBetType(s string) (BetType, error) {
	if bt, ok := betTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return bt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBetType, s)
}

// ParseBetMethod parses an English or Japanese bet method name
func ParseBetMethod(s string) (BetMethod, error) {
	if m, ok := betMethodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBetMethod, s)
}

// IsValid checks if the bet type is one of the known types
func (b BetType) IsValid() bool {
	return b.Arity() > 0
}

// Arity returns the number of horses a ticket of this type holds, or 0 if unknown
func (b BetType) Arity() int {
	switch b {
	case BetTypeWin, BetTypePlace:
		return 1
	case BetTypeQuinella, BetTypeExacta, BetTypeWide:
		return 2
	case BetTypeTrio, BetTypeTrifecta:
		return 3
	default:
		return 0
	}
}

// IsOrdered reports whether finishing order matters for this bet type
func (b BetType) IsOrdered() bool {
	return b == BetTypeExacta || b == BetTypeTrifecta
}

// JapaneseName returns the name printed on JRA tickets
func (b BetType) JapaneseName() string {
	return japaneseBetTypeNames[b]
}

// IsValid checks if the method is one of the known methods
func (m BetMethod) IsValid() bool {
	switch m {
	case BetMethodNormal, BetMethodBox, BetMethodNagashi, BetMethodFormation:
		return true
	default:
		return false
	}
}

// Supports reports whether the method can be used with the bet type
func (m BetMethod) Supports(b BetType) bool {
	if !m.IsValid() || !b.IsValid() {
		return false
	}
	if b.Arity() == 1 {
		return m == BetMethodNormal
	}
	return true
}

// SlotCount returns how many selection slots the method uses for a bet type
func (m BetMethod) SlotCount(b BetType) int {
	switch m {
	case BetMethodBox:
		return 1
	case BetMethodNagashi:
		return b.Arity()
	default:
		return b.Arity()
	}
}

// ValidateCombination fails fast for an unknown type or an unsupported method
func ValidateCombination(b BetType, m BetMethod) error {
	if !b.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownBetType, string(b))
	}
	if !m.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownBetMethod, string(m))
	}
	if !m.Supports(b) {
		return fmt.Errorf("%w: %s does not support %s", ErrUnsupportedMethod, b, m)
	}
	return nil
}

// SlotSelections maps a 1-based slot position to the chosen horse numbers in selection order.
type SlotSelections map[int][]int

// Clone returns a deep copy of the selections
func (s SlotSelections) Clone() SlotSelections {
	out := make(SlotSelections, len(s))
	for slot, numbers := range s {
		out[slot] = append([]int(nil), numbers...)
	}
	return out
}

// Ticket is one concrete bet combination
type Ticket struct {
	BetType BetType `json:"bet_type"`
	Numbers []int   `json:"numbers"`
}

// NewTicket creates a ticket, copying the numbers
func NewTicket(betType BetType, numbers ...int) Ticket {
	return Ticket{BetType: betType, Numbers: append([]int(nil), numbers...)}
}

// Key returns a canonical identity; unordered bet types ignore member order
func (t Ticket) Key() string {
	numbers := append([]int(nil), t.Numbers...)
	if !t.BetType.IsOrdered() {
		sort.Ints(numbers)
	}
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return string(t.BetType) + ":" + strings.Join(parts, "-")
}

// Contains reports whether the horse number is part of the ticket
func (t Ticket) Contains(number int) bool {
	for _, n := range t.Numbers {
		if n == number {
			return true
		}
	}
	return false
}

// HasDuplicates reports whether any horse number repeats
func (t Ticket) HasDuplicates() bool {
	seen := make(map[int]bool, len(t.Numbers))
	for _, n := range t.Numbers {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// String renders the ticket the way it is printed, e.g. "3-1" or "5"
func (t Ticket) String() string {
	sep := "-"
	if t.BetType.IsOrdered() {
		sep = "→"
	}
	parts := make([]string, len(t.Numbers))
	for i, n := range t.Numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, sep)
}
