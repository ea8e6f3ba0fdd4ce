package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusHours int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline health and recent sentiment",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		hours := statusHours
		if hours <= 0 {
			hours = cfg.Monitoring.LookbackWindowHours
		}

		snap, err := env.Collector.Collect(cmd.Context(), hours)
		if err != nil {
			return err
		}

		fmt.Printf("Feedback total:     %d\n", snap.TotalFeedback)
		fmt.Printf("Observations (%dh): %d\n", snap.LookbackHours, snap.TotalObservations)
		fmt.Printf("Average sentiment:  %.3f\n", snap.AverageSentiment)
		fmt.Printf("Distribution:       %d positive / %d neutral / %d negative\n",
			snap.Distribution.Positive, snap.Distribution.Neutral, snap.Distribution.Negative)
		fmt.Printf("Last hour:          %d\n", snap.LastHourCount)

		if len(snap.RecentActivity) > 0 {
			fmt.Println("Recent activity:")
			for _, a := range snap.RecentActivity {
				fmt.Printf("  %s  %s\n", a.Timestamp.Format("2006-01-02 15:04"), a.Description)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusHours, "hours", 0, "lookback window in hours (default from config)")
	rootCmd.AddCommand(statusCmd)
}
