package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage group collection pools",
}

var poolCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a pool toward a fixed goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		organizer, _ := cmd.Flags().GetString("organizer")
		payee, _ := cmd.Flags().GetString("payee")
		goal, _ := cmd.Flags().GetInt64("goal")
		currency, _ := cmd.Flags().GetString("currency")
		description, _ := cmd.Flags().GetString("description")
		deadline, _ := cmd.Flags().GetInt("deadline")
		onMiss, _ := cmd.Flags().GetString("on-deadline-miss")

		return post("/v1/pools", map[string]any{
			"organizer_account_id": organizer,
			"payee_account_id":     payee,
			"goal_amount":          goal,
			"currency":             currency,
			"description":          description,
			"deadline_minutes":     deadline,
			"on_deadline_miss":     onMiss,
		})
	},
}

var poolGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/pools/" + args[0])
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/pools"
		if status != "" {
			path += "?status=" + status
		}
		return get(path)
	},
}

var poolContributionsCmd = &cobra.Command{
	Use:   "contributions <id>",
	Short: "List contributions to a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get(fmt.Sprintf("/v1/pools/%s/contributions", args[0]))
	},
}

var poolContributeCmd = &cobra.Command{
	Use:   "contribute <id>",
	Short: "Contribute funds toward the pool goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, _ := cmd.Flags().GetString("payer")
		amount, _ := cmd.Flags().GetInt64("amount")
		return post(fmt.Sprintf("/v1/pools/%s/contribute", args[0]), map[string]any{
			"payer_account_id": payer,
			"amount":           amount,
		})
	},
}

var poolCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel the pool and refund every contribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/pools/%s/cancel", args[0]), nil)
	},
}

func init() {
	poolCreateCmd.Flags().String("organizer", "", "Organizer account id")
	poolCreateCmd.Flags().String("payee", "", "Payee account id")
	poolCreateCmd.Flags().Int64("goal", 0, "Goal amount in minor units")
	poolCreateCmd.Flags().String("currency", "USD", "ISO currency code")
	poolCreateCmd.Flags().String("description", "", "Human readable description")
	poolCreateCmd.Flags().Int("deadline", 0, "Deadline in minutes (default 7 days)")
	poolCreateCmd.Flags().String("on-deadline-miss", "refund_all", "refund_all or settle_partial")
	poolCreateCmd.MarkFlagRequired("organizer")
	poolCreateCmd.MarkFlagRequired("payee")
	poolCreateCmd.MarkFlagRequired("goal")

	poolListCmd.Flags().String("status", "", "Filter by status")

	poolContributeCmd.Flags().String("payer", "", "Payer account id")
	poolContributeCmd.Flags().Int64("amount", 0, "Amount in minor units")
	poolContributeCmd.MarkFlagRequired("payer")
	poolContributeCmd.MarkFlagRequired("amount")

	poolCmd.AddCommand(poolCreateCmd, poolGetCmd, poolListCmd, poolContributionsCmd, poolContributeCmd, poolCancelCmd)
	rootCmd.AddCommand(poolCmd)
}
