package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/models"
	"github.com/yourusername/keiba-sim/internal/service"
)

var (
	simulateFlags selectionFlags
	simulateStake int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Buy a selection and settle it against the race result",
	Example: `  keiba-sim simulate --source csv --race 202406050811 --type 馬連 --method box --slot 1,3,5 --stake 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := configuredDefaults()
		if err != nil {
			return err
		}
		req, err := simulateFlags.request(defaults)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}

		result, err := svc.Simulate(cmd.Context(), service.SimulationRequest{TicketRequest: req, Stake: simulateStake})
		if err != nil {
			return err
		}
		if jsonOutput {
			fmt.Println(result.ToJSON())
			return nil
		}
		printResult(req, result)
		return nil
	},
}

func init() {
	simulateFlags.register(simulateCmd)
	simulateCmd.Flags().Int64Var(&simulateStake, "stake", 0, "Stake per ticket in yen; 0 uses the configured default")
}

func printResult(req service.TicketRequest, result *models.SimulationResult) {
	fmt.Printf("Race %s %s %s\n", req.RaceID, req.BetType.JapaneseName(), req.Method)
	fmt.Printf("Tickets: %d x %d yen = %d yen\n", len(result.TicketsEvaluated), result.StakePerTicket, result.TotalStake)
	for _, tr := range result.Hits() {
		fmt.Printf("  HIT %-10s odds %.1f payout %d yen\n", tr.Ticket.String(), tr.EstimatedOdds, tr.Payout)
	}
	fmt.Printf("Payout: %d yen, Net: %+d yen, Return: %.1f%%\n", result.TotalPayout, result.NetProfit, result.ReturnRate())
}
