package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/models"
)

var (
	estimateRace   string
	estimateType   string
	estimateHorses string
	estimateStake  int64
)

var estimateCmd = &cobra.Command{
	Use:     "estimate",
	Short:   "Estimate the odds and payout of one ticket",
	Example: `  keiba-sim estimate --race 202406050811 --type exacta --horses 3-1 --stake 200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bt, err := models.ParseBetType(estimateType)
		if err != nil {
			return err
		}
		numbers, err := parseNumbers(estimateHorses)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}

		est, err := svc.Estimate(cmd.Context(), estimateRace, bt, numbers, estimateStake)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(est)
		}
		fmt.Printf("%s %s: odds %.1f, stake %d yen, payout %d yen\n",
			bt.JapaneseName(), est.Ticket.String(), est.Odds, est.Stake, est.Payout)
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateRace, "race", "r", "", "Race id")
	estimateCmd.Flags().StringVarP(&estimateType, "type", "t", "win", "Bet type")
	estimateCmd.Flags().StringVar(&estimateHorses, "horses", "", "Horse numbers in ticket order, e.g. 3-1")
	estimateCmd.Flags().Int64Var(&estimateStake, "stake", 0, "Stake in yen; 0 uses the configured default")
	_ = estimateCmd.MarkFlagRequired("race")
	_ = estimateCmd.MarkFlagRequired("horses")
}
