package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/ingest"
)

var (
	ingestCustomer string
	ingestChannel  string
	ingestRating   int
	ingestMeta     []string

	importFormat  string
	importCharset string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [feedback text]",
	Short: "Submit one feedback item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		sub := ingest.Submission{
			CustomerID: ingestCustomer,
			Text:       strings.Join(args, " "),
			Channel:    ingestChannel,
			Metadata:   parseMeta(ingestMeta),
		}
		if ingestRating > 0 {
			sub.Rating = &ingestRating
		}

		item, err := env.Service.Submit(cmd.Context(), sub)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %s (channel=%s)\n", item.ID, item.Channel)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Bulk import feedback from a file or FTP drop",
	Long:  "Imports feedback from a local JSONL, CSV, or XLSX file, or from an ftp:// URL pointing at one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Importer.Import(cmd.Context(), args[0], ingest.ImportOptions{
			Format:  importFormat,
			Charset: importCharset,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d, skipped %d\n", result.Imported, result.Skipped)
		return nil
	},
}

// parseMeta turns repeated key=value flags into a metadata map.
func parseMeta(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			continue
		}
		meta[k] = v
	}
	return meta
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCustomer, "customer", "", "customer ID (empty = anonymous)")
	ingestCmd.Flags().StringVar(&ingestChannel, "channel", "web_form", "feedback channel")
	ingestCmd.Flags().IntVar(&ingestRating, "rating", 0, "1-5 rating (0 = none)")
	ingestCmd.Flags().StringArrayVar(&ingestMeta, "meta", nil, "metadata key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "", "source format: jsonl, csv, or xlsx (default from extension)")
	importCmd.Flags().StringVar(&importCharset, "charset", "", "CSV character set (default UTF-8)")
	rootCmd.AddCommand(importCmd)
}
