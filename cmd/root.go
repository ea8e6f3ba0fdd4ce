package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "insights-cli",
	Short: "Customer feedback sentiment pipeline",
	Long:  "Ingests customer feedback, derives sentiment via tiered evaluation with deterministic fallbacks, aggregates trends, and routes follow-up actions to the configured CRM.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
