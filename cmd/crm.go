package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/crm"
)

var crmData []string

var crmCmd = &cobra.Command{
	Use:   "crm",
	Short: "Dispatch follow-up actions to the configured CRM",
}

var crmDispatchCmd = &cobra.Command{
	Use:   "dispatch <action>",
	Short: "Dispatch one CRM action",
	Long: fmt.Sprintf("Dispatches an action (%s) through the provider selected by the crm_provider setting. With crm_enabled off the action is echoed back without reaching any CRM.",
		strings.Join([]string{crm.ActionCreateTask, crm.ActionCreateCase, crm.ActionUpdateContact}, ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		data := make(map[string]any)
		for k, v := range parseMeta(crmData) {
			data[k] = v
		}

		result, err := env.Router.Dispatch(cmd.Context(), args[0], data)
		if err != nil {
			return err
		}

		fmt.Printf("Action:   %s\n", result.Action)
		if result.Provider != "" {
			fmt.Printf("Provider: %s\n", result.Provider)
		}
		fmt.Printf("Status:   %s\n", result.Status)
		if result.Message != "" {
			fmt.Printf("Message:  %s\n", result.Message)
		}
		return nil
	},
}

var crmProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered CRM providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		names := env.Registry.List()
		if len(names) == 0 {
			fmt.Println("No providers configured")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	crmDispatchCmd.Flags().StringArrayVar(&crmData, "data", nil, "action data key=value (repeatable)")
	crmCmd.AddCommand(crmDispatchCmd)
	crmCmd.AddCommand(crmProvidersCmd)
	rootCmd.AddCommand(crmCmd)
}
