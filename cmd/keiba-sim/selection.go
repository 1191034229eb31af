package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/models"
	"github.com/yourusername/keiba-sim/internal/service"
)

// selectionFlags are shared by tickets and simulate
type selectionFlags struct {
	raceID  string
	betType string
	method  string
	slots   []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.raceID, "race", "r", "", "Race id")
	cmd.Flags().StringVarP(&f.betType, "type", "t", "", "Bet type (win, place, quinella, exacta, wide, trio, trifecta or 単勝, 馬連, ...)")
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "Bet method (normal, box, nagashi, formation)")
	cmd.Flags().StringArrayVar(&f.slots, "slot", nil, "Horse numbers of one slot, e.g. --slot 1,3,5; repeat for later slots")
	_ = cmd.MarkFlagRequired("race")
}

// request resolves the flags into a ticket request; empty type and method
// fall back to the simulation defaults
func (f *selectionFlags) request(defaults service.TicketRequest) (service.TicketRequest, error) {
	req := service.TicketRequest{RaceID: f.raceID, BetType: defaults.BetType, Method: defaults.Method}
	if f.betType != "" {
		bt, err := models.ParseBetType(f.betType)
		if err != nil {
			return req, err
		}
		req.BetType = bt
	}
	if f.method != "" {
		m, err := models.ParseBetMethod(f.method)
		if err != nil {
			return req, err
		}
		req.Method = m
	}

	for i, raw := range f.slots {
		numbers, err := parseNumbers(raw)
		if err != nil {
			return req, fmt.Errorf("slot %d: %w", i+1, err)
		}
		req.Slots = append(req.Slots, numbers)
	}
	return req, nil
}

func configuredDefaults() (service.TicketRequest, error) {
	bt, err := models.ParseBetType(cfg.Simulation.BetType)
	if err != nil {
		return service.TicketRequest{}, err
	}
	m, err := models.ParseBetMethod(cfg.Simulation.Method)
	if err != nil {
		return service.TicketRequest{}, err
	}
	return service.TicketRequest{BetType: bt, Method: m}, nil
}

// parseNumbers reads horse numbers separated by commas, dashes or spaces
func parseNumbers(raw string) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '-' || r == ' ' || r == '、'
	})
	numbers := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid horse number %q", field)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
