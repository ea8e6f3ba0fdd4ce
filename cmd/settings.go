package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write runtime settings",
	Long:  "Runtime settings live in the store and apply without a restart: crm_enabled, crm_provider, auto_process_feedback, negative_threshold, positive_threshold, max_processing_time, batch_size.",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := env.Store.AllSettings(cmd.Context())
		if err != nil {
			return err
		}

		effective := config.ParseSettings(raw).Raw()
		keys := make([]string, 0, len(effective))
		for k := range effective {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-22s %s\n", k, effective[k])
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !config.IsSettingKey(key) {
			return eris.Errorf("unknown setting: %s", key)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := env.Store.AllSettings(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(config.ParseSettings(raw).Raw()[key])
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !config.IsSettingKey(key) {
			return eris.Errorf("unknown setting: %s", key)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.PutSetting(cmd.Context(), key, value); err != nil {
			return err
		}

		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
