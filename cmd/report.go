package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/insights"
	"github.com/sells-group/insights-cli/internal/model"
)

var (
	reportDays     int
	reportCustomer string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and inspect trend reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a trend report over a recent window",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		days := reportDays
		if days <= 0 {
			days = cfg.Insights.DefaultWindowDays
		}

		artifact, err := env.Reporter.Generate(cmd.Context(), insights.WindowEndingNow(days, reportCustomer))
		if err != nil {
			return err
		}

		fmt.Printf("Report %s\n", artifact.ID)
		printTrend(&artifact.Report)
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		artifact, err := env.Store.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Report %s (generated %s)\n", artifact.ID, artifact.GeneratedAt.Format("2006-01-02 15:04"))
		printTrend(&artifact.Report)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		reports, err := env.Store.ListReports(cmd.Context(), 20)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports")
			return nil
		}

		for _, a := range reports {
			fmt.Printf("%s  %s  samples=%d avg=%.3f %s\n",
				a.ID, a.GeneratedAt.Format("2006-01-02 15:04"),
				a.Report.SampleCount, a.Report.AverageSentiment, a.Report.Direction)
		}
		return nil
	},
}

func printTrend(r *model.TrendReport) {
	fmt.Printf("Window:       %s .. %s\n",
		r.Criteria.Start.Format("2006-01-02"), r.Criteria.End.Format("2006-01-02"))
	if r.Criteria.CustomerID != "" {
		fmt.Printf("Customer:     %s\n", r.Criteria.CustomerID)
	}
	fmt.Printf("Samples:      %d\n", r.SampleCount)
	fmt.Printf("Average:      %.3f\n", r.AverageSentiment)
	fmt.Printf("Direction:    %s\n", r.Direction)
	fmt.Printf("Distribution: %d positive / %d neutral / %d negative\n",
		r.Distribution.Positive, r.Distribution.Neutral, r.Distribution.Negative)
	if r.Partial {
		fmt.Println("Note: window scan was incomplete; figures cover the rows read")
	}
	if len(r.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func init() {
	reportGenerateCmd.Flags().IntVar(&reportDays, "days", 0, "window length in days (default from config)")
	reportGenerateCmd.Flags().StringVar(&reportCustomer, "customer", "", "restrict to one customer")
	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(reportCmd)
}
