package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fxpoolCmd = &cobra.Command{
	Use:   "fxpool",
	Short: "Manage multi-currency pools with USD goals",
}

var fxpoolCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a multi-currency pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		organizer, _ := cmd.Flags().GetString("organizer")
		payee, _ := cmd.Flags().GetString("payee")
		goal, _ := cmd.Flags().GetInt64("goal-usd")
		description, _ := cmd.Flags().GetString("description")
		deadline, _ := cmd.Flags().GetInt("deadline")
		onMiss, _ := cmd.Flags().GetString("on-deadline-miss")
		maxDrift, _ := cmd.Flags().GetFloat64("max-drift")

		return post("/v1/fxpools", map[string]any{
			"organizer_account_id": organizer,
			"payee_account_id":     payee,
			"goal_amount_usd":      goal,
			"description":          description,
			"deadline_minutes":     deadline,
			"on_deadline_miss":     onMiss,
			"max_rate_drift_pct":   maxDrift,
		})
	},
}

var fxpoolGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one FX pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/fxpools/" + args[0])
	},
}

var fxpoolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List FX pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/fxpools"
		if status != "" {
			path += "?status=" + status
		}
		return get(path)
	},
}

var fxpoolContributionsCmd = &cobra.Command{
	Use:   "contributions <id>",
	Short: "List contributions with their locked USD rates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get(fmt.Sprintf("/v1/fxpools/%s/contributions", args[0]))
	},
}

var fxpoolContributeCmd = &cobra.Command{
	Use:   "contribute <id>",
	Short: "Contribute in any supported currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, _ := cmd.Flags().GetString("payer")
		currency, _ := cmd.Flags().GetString("currency")
		amount, _ := cmd.Flags().GetInt64("amount")
		return post(fmt.Sprintf("/v1/fxpools/%s/contribute", args[0]), map[string]any{
			"payer_account_id": payer,
			"currency":         currency,
			"amount_local":     amount,
		})
	},
}

var fxpoolDriftCheckCmd = &cobra.Command{
	Use:   "drift-check <id>",
	Short: "Re-price every contribution against live rates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/fxpools/%s/force-drift", args[0]), nil)
	},
}

var fxpoolCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel the pool and refund in original currencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/fxpools/%s/cancel", args[0]), nil)
	},
}

func init() {
	fxpoolCreateCmd.Flags().String("organizer", "", "Organizer account id")
	fxpoolCreateCmd.Flags().String("payee", "", "Payee account id")
	fxpoolCreateCmd.Flags().Int64("goal-usd", 0, "Goal amount in USD minor units")
	fxpoolCreateCmd.Flags().String("description", "", "Human readable description")
	fxpoolCreateCmd.Flags().Int("deadline", 0, "Deadline in minutes (default 7 days)")
	fxpoolCreateCmd.Flags().String("on-deadline-miss", "refund_all", "refund_all or settle_partial")
	fxpoolCreateCmd.Flags().Float64("max-drift", 0, "Max rate drift percent (default 2.0)")
	fxpoolCreateCmd.MarkFlagRequired("organizer")
	fxpoolCreateCmd.MarkFlagRequired("payee")
	fxpoolCreateCmd.MarkFlagRequired("goal-usd")

	fxpoolListCmd.Flags().String("status", "", "Filter by status")

	fxpoolContributeCmd.Flags().String("payer", "", "Payer account id")
	fxpoolContributeCmd.Flags().String("currency", "", "ISO currency code of the contribution")
	fxpoolContributeCmd.Flags().Int64("amount", 0, "Amount in local-currency minor units")
	fxpoolContributeCmd.MarkFlagRequired("payer")
	fxpoolContributeCmd.MarkFlagRequired("currency")
	fxpoolContributeCmd.MarkFlagRequired("amount")

	fxpoolCmd.AddCommand(fxpoolCreateCmd, fxpoolGetCmd, fxpoolListCmd, fxpoolContributionsCmd,
		fxpoolContributeCmd, fxpoolDriftCheckCmd, fxpoolCancelCmd)
	rootCmd.AddCommand(fxpoolCmd)
}
