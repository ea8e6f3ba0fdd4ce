package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/store"
)

var (
	analyzeAll         bool
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [feedback-id...]",
	Short: "Derive sentiment observations for stored feedback",
	Long:  "Analyzes the given feedback IDs, or with --all every stored item that has no observation yet. Re-analysis overwrites the prior observation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !analyzeAll && len(args) == 0 {
			return eris.New("provide feedback IDs or --all")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if !analyzeAll {
			for _, id := range args {
				obs, err := env.Service.Process(cmd.Context(), id)
				if err != nil {
					return err
				}
				printObservation(obs)
			}
			return nil
		}

		items, err := unanalyzedFeedback(cmd, env)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing to analyze")
			return nil
		}

		concurrency := analyzeConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Insights.BatchConcurrency
		}
		result, err := env.Analyzer.AnalyzeBatch(cmd.Context(), items, concurrency)
		if err != nil {
			return err
		}

		fmt.Printf("Analyzed %d, failed %d\n", result.Processed, result.Failed)
		if len(result.FailedIDs) > 0 {
			fmt.Printf("Failed IDs: %s\n", strings.Join(result.FailedIDs, ", "))
		}
		return nil
	},
}

func unanalyzedFeedback(cmd *cobra.Command, env *appEnv) ([]model.FeedbackItem, error) {
	all, err := env.Store.ListFeedback(cmd.Context(), store.FeedbackFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "list feedback")
	}

	var pending []model.FeedbackItem
	for _, item := range all {
		if _, err := env.Store.GetObservation(cmd.Context(), item.ID); err != nil {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func printObservation(obs *model.SentimentObservation) {
	fmt.Printf("%s  score=%.2f label=%s confidence=%.2f method=%s",
		obs.FeedbackID, obs.Score, obs.Label, obs.Confidence, obs.Method)
	if len(obs.Themes) > 0 {
		fmt.Printf(" themes=%s", strings.Join(obs.Themes, ","))
	}
	fmt.Println()
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "analyze every item without an observation")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "batch concurrency (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}
