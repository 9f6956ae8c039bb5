package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Manage pre-approved recurring collect schedules",
}

var recurringCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a recurring schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		payee, _ := cmd.Flags().GetString("payee")
		payer, _ := cmd.Flags().GetString("payer")
		amount, _ := cmd.Flags().GetInt64("amount")
		currency, _ := cmd.Flags().GetString("currency")
		description, _ := cmd.Flags().GetString("description")
		interval, _ := cmd.Flags().GetString("interval")
		maxOcc, _ := cmd.Flags().GetInt("max-occurrences")

		body := map[string]any{
			"payee_account_id": payee,
			"payer_account_id": payer,
			"amount":           amount,
			"currency":         currency,
			"description":      description,
			"interval":         interval,
		}
		if maxOcc > 0 {
			body["max_occurrences"] = maxOcc
		}
		return post("/v1/recurring", body)
	},
}

var recurringGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/recurring/" + args[0])
	},
}

var recurringListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/recurring"
		if status != "" {
			path += "?status=" + status
		}
		return get(path)
	},
}

var recurringTriggerCmd = &cobra.Command{
	Use:   "trigger <id>",
	Short: "Execute one occurrence immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/recurring/%s/trigger", args[0]), nil)
	},
}

var recurringPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause an active schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/recurring/%s/pause", args[0]), nil)
	},
}

var recurringResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/recurring/%s/resume", args[0]), nil)
	},
}

var recurringCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a schedule permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/recurring/%s/cancel", args[0]), nil)
	},
}

func init() {
	recurringCreateCmd.Flags().String("payee", "", "Payee account id")
	recurringCreateCmd.Flags().String("payer", "", "Payer account id")
	recurringCreateCmd.Flags().Int64("amount", 0, "Amount in minor units")
	recurringCreateCmd.Flags().String("currency", "USD", "ISO currency code")
	recurringCreateCmd.Flags().String("description", "", "Human readable description")
	recurringCreateCmd.Flags().String("interval", "monthly", "daily, weekly, monthly or yearly")
	recurringCreateCmd.Flags().Int("max-occurrences", 0, "Stop after this many occurrences (0 = unlimited)")
	recurringCreateCmd.MarkFlagRequired("payee")
	recurringCreateCmd.MarkFlagRequired("payer")
	recurringCreateCmd.MarkFlagRequired("amount")

	recurringListCmd.Flags().String("status", "", "Filter by status")

	recurringCmd.AddCommand(recurringCreateCmd, recurringGetCmd, recurringListCmd,
		recurringTriggerCmd, recurringPauseCmd, recurringResumeCmd, recurringCancelCmd)
	rootCmd.AddCommand(recurringCmd)
}
