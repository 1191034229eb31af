package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/models"
)

var ticketFlags selectionFlags

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Expand a selection into tickets",
	Example: `  keiba-sim tickets --race 202406050811 --type quinella --method box --slot 1,3,5
  keiba-sim tickets --race 202406050811 --type 3連単 --method nagashi --slot 3 --slot 1,5,7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := configuredDefaults()
		if err != nil {
			return err
		}
		req, err := ticketFlags.request(defaults)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}

		tickets, horses, err := svc.Tickets(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(tickets)
		}
		printTickets(req.BetType, tickets, horses)
		return nil
	},
}

func init() {
	ticketFlags.register(ticketsCmd)
}

func printTickets(betType models.BetType, tickets []models.Ticket, horses []models.Horse) {
	if len(tickets) == 0 {
		fmt.Println("Selection is incomplete: no tickets")
		return
	}
	index := models.IndexHorses(horses)
	fmt.Printf("%s: %d tickets\n", betType.JapaneseName(), len(tickets))
	for _, t := range tickets {
		fmt.Printf("  %-10s", t.String())
		for _, n := range t.Numbers {
			if h := index.Lookup(n); h.Name != "" {
				fmt.Printf(" %s", h.Name)
			}
		}
		fmt.Println()
	}
}
