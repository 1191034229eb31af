package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-sim/internal/models"
	"github.com/yourusername/keiba-sim/internal/scheduler"
)

var (
	racesFinishedOnly bool
	racesWatch        time.Duration
	racesSchedule     string
)

var racesCmd = &cobra.Command{
	Use:   "races",
	Short: "List the races of the odds source",
	Example: `  keiba-sim races --source csv --finished
  keiba-sim races --watch 1m
  keiba-sim races --schedule "*/5 9-16 * * 6,0"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		races, err := svc.Races(cmd.Context())
		if err != nil {
			return err
		}
		if err := printRaces(os.Stdout, races); err != nil {
			return err
		}
		if racesWatch <= 0 && racesSchedule == "" {
			return nil
		}

		source, err := newSource(sourceName)
		if err != nil {
			return err
		}
		sched := scheduler.NewScheduler(source, logs)
		handle := func(races []models.Race) {
			fmt.Printf("\n%s\n", time.Now().Format("15:04:05"))
			if err := printRaces(os.Stdout, races); err != nil {
				logs.WithError(err).Warn("Failed to print races")
			}
		}
		if racesSchedule != "" {
			err = sched.ScheduleRefresh(racesSchedule, handle)
		} else {
			err = sched.ScheduleEvery(racesWatch, handle)
		}
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		<-cmd.Context().Done()
		return nil
	},
}

func init() {
	racesCmd.Flags().BoolVar(&racesFinishedOnly, "finished", false, "Only races with a result")
	racesCmd.Flags().DurationVar(&racesWatch, "watch", 0, "Refresh the list at this interval until interrupted")
	racesCmd.Flags().StringVar(&racesSchedule, "schedule", "", "Refresh on a cron schedule (Japan time) until interrupted")
}

func printRaces(out io.Writer, races []models.Race) error {
	if racesFinishedOnly {
		finished := make([]models.Race, 0, len(races))
		for _, r := range races {
			if r.IsFinished() {
				finished = append(finished, r)
			}
		}
		races = finished
	}

	if jsonOutput {
		return json.NewEncoder(out).Encode(races)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RACE\tDATE\tVENUE\tR\tNAME\tRUNNERS\tFAVORITE\tRESULT")
	for _, r := range races {
		favorite := "-"
		if fav := r.Favorites(); len(fav) > 0 {
			favorite = fmt.Sprintf("%d (%.1f)", fav[0].Number, fav[0].Odds)
		}
		result := "-"
		if r.IsFinished() {
			result = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.Date, r.Venue, r.Number, r.Name, len(r.Horses), favorite, result)
	}
	return w.Flush()
}
