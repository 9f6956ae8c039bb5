package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Manage pull-payment requests",
}

var collectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pending collect",
	RunE: func(cmd *cobra.Command, args []string) error {
		payee, _ := cmd.Flags().GetString("payee")
		payer, _ := cmd.Flags().GetString("payer")
		amount, _ := cmd.Flags().GetInt64("amount")
		currency, _ := cmd.Flags().GetString("currency")
		description, _ := cmd.Flags().GetString("description")
		expires, _ := cmd.Flags().GetInt("expires-in")

		return post("/v1/collects", map[string]any{
			"payee_account_id":   payee,
			"payer_account_id":   payer,
			"amount":             amount,
			"currency":           currency,
			"description":        description,
			"expires_in_minutes": expires,
		})
	},
}

var collectGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one collect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/collects/" + args[0])
	},
}

var collectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collects",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/collects"
		if status != "" {
			path += "?status=" + status
		}
		return get(path)
	},
}

var collectApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending collect and execute the transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/collects/%s/approve", args[0]), nil)
	},
}

var collectDeclineCmd = &cobra.Command{
	Use:   "decline <id>",
	Short: "Decline a pending collect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return post(fmt.Sprintf("/v1/collects/%s/decline", args[0]), map[string]any{"reason": reason})
	},
}

func init() {
	collectCreateCmd.Flags().String("payee", "", "Payee account id")
	collectCreateCmd.Flags().String("payer", "", "Payer account id")
	collectCreateCmd.Flags().Int64("amount", 0, "Amount in minor units")
	collectCreateCmd.Flags().String("currency", "USD", "ISO currency code")
	collectCreateCmd.Flags().String("description", "", "Human readable description")
	collectCreateCmd.Flags().Int("expires-in", 0, "Expiry window in minutes (default 24h)")
	collectCreateCmd.MarkFlagRequired("payee")
	collectCreateCmd.MarkFlagRequired("payer")
	collectCreateCmd.MarkFlagRequired("amount")

	collectListCmd.Flags().String("status", "", "Filter by status")
	collectDeclineCmd.Flags().String("reason", "", "Decline reason")

	collectCmd.AddCommand(collectCreateCmd, collectGetCmd, collectListCmd, collectApproveCmd, collectDeclineCmd)
	rootCmd.AddCommand(collectCmd)
}
