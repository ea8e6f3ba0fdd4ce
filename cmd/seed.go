package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/mockgen"
)

var (
	seedCount     int
	seedValue     uint64
	seedCustomers int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic feedback for development",
	Long:  "Generates weighted synthetic feedback (positive, neutral, and negative tiers) and ingests it with origin=synthetic.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		opts := []mockgen.Option{mockgen.WithCustomerPool(seedCustomers)}
		if seedValue != 0 {
			opts = append(opts, mockgen.WithSeed(seedValue))
		}
		gen, err := mockgen.New(opts...)
		if err != nil {
			return err
		}

		var ingested int
		for _, sub := range gen.GenerateN(seedCount) {
			if _, err := env.Service.Submit(cmd.Context(), sub); err != nil {
				return err
			}
			ingested++
		}

		fmt.Printf("Seeded %d synthetic feedback items\n", ingested)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 50, "number of items to generate")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "RNG seed for reproducible output (0 = random)")
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 100, "size of the synthetic customer pool")
	rootCmd.AddCommand(seedCmd)
}
