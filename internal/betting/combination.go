package betting

import (
	"sort"

	"github.com/yourusername/keiba-sim/internal/models"
)

// GenerateTickets expands slot selections into concrete tickets.
// Insufficient selections produce an empty slice, not an error; only an unknown
// bet type or an unsupported method fails. Output order is deterministic.
func GenerateTickets(betType models.BetType, method models.BetMethod, slots models.SlotSelections) ([]models.Ticket, error) {
	if err := models.ValidateCombination(betType, method); err != nil {
		return nil, err
	}

	switch method {
	case models.BetMethodBox:
		return boxTickets(betType, slots), nil
	case models.BetMethodNagashi:
		return nagashiTickets(betType, slots), nil
	default:
		if betType.Arity() == 1 {
			return singleTickets(betType, slots), nil
		}
		return productTickets(betType, slots), nil
	}
}

// CountTickets returns the number of tickets (点数) the selections expand to
func CountTickets(betType models.BetType, method models.BetMethod, slots models.SlotSelections) (int, error) {
	tickets, err := GenerateTickets(betType, method, slots)
	if err != nil {
		return 0, err
	}
	return len(tickets), nil
}

func singleTickets(betType models.BetType, slots models.SlotSelections) []models.Ticket {
	tickets := make([]models.Ticket, 0, len(slots[1]))
	for _, n := range unique(slots[1]) {
		tickets = append(tickets, models.NewTicket(betType, n))
	}
	return tickets
}

// productTickets serves normal and formation: one pool per finishing position.
func productTickets(betType models.BetType, slots models.SlotSelections) []models.Ticket {
	arity := betType.Arity()
	pools := make([][]int, arity)
	for i := range pools {
		pools[i] = unique(slots[i+1])
		if len(pools[i]) == 0 {
			return []models.Ticket{}
		}
	}

	seen := make(map[string]bool)
	tickets := []models.Ticket{}
	cartesian(pools, func(tuple []int) {
		if hasRepeat(tuple) {
			return
		}
		numbers := append([]int(nil), tuple...)
		if !betType.IsOrdered() {
			sort.Ints(numbers)
		}
		ticket := models.NewTicket(betType, numbers...)
		key := ticket.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		tickets = append(tickets, ticket)
	})
	return tickets
}

func boxTickets(betType models.BetType, slots models.SlotSelections) []models.Ticket {
	pool := unique(slots[1])
	k := betType.Arity()
	tickets := []models.Ticket{}
	if len(pool) < k {
		return tickets
	}

	combinations(pool, k, func(combo []int) {
		if !betType.IsOrdered() {
			tickets = append(tickets, models.NewTicket(betType, combo...))
			return
		}
		permutations(combo, func(perm []int) {
			tickets = append(tickets, models.NewTicket(betType, perm...))
		})
	})
	return tickets
}

// nagashiTickets pairs the axis horse with partners drawn from slots 2 and up.
// Only the first axis horse is used.
func nagashiTickets(betType models.BetType, slots models.SlotSelections) []models.Ticket {
	tickets := []models.Ticket{}
	if len(slots[1]) == 0 {
		return tickets
	}
	axis := slots[1][0]

	var partners []int
	for slot := 2; slot <= betType.Arity(); slot++ {
		partners = append(partners, slots[slot]...)
	}
	partners = without(unique(partners), axis)

	combinations(partners, betType.Arity()-1, func(combo []int) {
		numbers := append([]int{axis}, combo...)
		tickets = append(tickets, models.NewTicket(betType, numbers...))
	})
	return tickets
}

// cartesian calls fn for every tuple taking one element from each pool, in pool order.
// The tuple slice is reused between calls.
func cartesian(pools [][]int, fn func([]int)) {
	tuple := make([]int, len(pools))
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(pools) {
			fn(tuple)
			return
		}
		for _, n := range pools[depth] {
			tuple[depth] = n
			walk(depth + 1)
		}
	}
	walk(0)
}

// combinations calls fn for every k-combination of items, lexicographic by index.
// The combo slice is reused between calls.
func combinations(items []int, k int, fn func([]int)) {
	if k <= 0 || k > len(items) {
		return
	}
	combo := make([]int, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			fn(combo)
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			combo[depth] = items[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
}

// permutations calls fn for every ordering of items, lexicographic by index.
func permutations(items []int, fn func([]int)) {
	perm := make([]int, 0, len(items))
	used := make([]bool, len(items))
	var walk func()
	walk = func() {
		if len(perm) == len(items) {
			fn(perm)
			return
		}
		for i, n := range items {
			if used[i] {
				continue
			}
			used[i] = true
			perm = append(perm, n)
			walk()
			perm = perm[:len(perm)-1]
			used[i] = false
		}
	}
	walk()
}

func unique(numbers []int) []int {
	seen := make(map[int]bool, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func without(numbers []int, drop int) []int {
	out := numbers[:0:0]
	for _, n := range numbers {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

func hasRepeat(tuple []int) bool {
	for i := range tuple {
		for j := i + 1; j < len(tuple); j++ {
			if tuple[i] == tuple[j] {
				return true
			}
		}
	}
	return false
}
