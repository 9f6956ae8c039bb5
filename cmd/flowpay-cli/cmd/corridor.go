package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var corridorCmd = &cobra.Command{
	Use:   "corridor",
	Short: "Manage FX-locked remittance corridors",
}

var corridorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a corridor with a locked exchange rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source-currency")
		target, _ := cmd.Flags().GetString("target-currency")
		sourceAcct, _ := cmd.Flags().GetString("source-account")
		targetAcct, _ := cmd.Flags().GetString("target-account")
		amount, _ := cmd.Flags().GetInt64("amount-target")
		description, _ := cmd.Flags().GetString("description")
		lockMinutes, _ := cmd.Flags().GetInt("lock-duration")
		maxDrift, _ := cmd.Flags().GetFloat64("max-drift")

		return post("/v1/corridors", map[string]any{
			"source_currency":       source,
			"target_currency":       target,
			"source_account_id":     sourceAcct,
			"target_account_id":     targetAcct,
			"amount_target_cents":   amount,
			"description":           description,
			"lock_duration_minutes": lockMinutes,
			"max_rate_drift_pct":    maxDrift,
		})
	},
}

var corridorGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one corridor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/corridors/" + args[0])
	},
}

var corridorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corridors",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/corridors"
		if status != "" {
			path += "?status=" + status
		}
		return get(path)
	},
}

var corridorRateCheckCmd = &cobra.Command{
	Use:   "rate-check <id>",
	Short: "Compare the locked rate against the live rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get(fmt.Sprintf("/v1/corridors/%s/rate-check", args[0]))
	},
}

var corridorRemitCmd = &cobra.Command{
	Use:   "remit <id>",
	Short: "Execute the remittance at the locked rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(fmt.Sprintf("/v1/corridors/%s/remit", args[0]), nil)
	},
}

func init() {
	corridorCreateCmd.Flags().String("source-currency", "", "Source ISO currency code")
	corridorCreateCmd.Flags().String("target-currency", "", "Target ISO currency code")
	corridorCreateCmd.Flags().String("source-account", "", "Source account id")
	corridorCreateCmd.Flags().String("target-account", "", "Target account id")
	corridorCreateCmd.Flags().Int64("amount-target", 0, "Amount in target-currency minor units")
	corridorCreateCmd.Flags().String("description", "", "Human readable description")
	corridorCreateCmd.Flags().Int("lock-duration", 0, "Rate lock window in minutes (default 30)")
	corridorCreateCmd.Flags().Float64("max-drift", 0, "Max rate drift percent (default 2.0)")
	corridorCreateCmd.MarkFlagRequired("source-currency")
	corridorCreateCmd.MarkFlagRequired("target-currency")
	corridorCreateCmd.MarkFlagRequired("source-account")
	corridorCreateCmd.MarkFlagRequired("target-account")
	corridorCreateCmd.MarkFlagRequired("amount-target")

	corridorListCmd.Flags().String("status", "", "Filter by status")

	corridorCmd.AddCommand(corridorCreateCmd, corridorGetCmd, corridorListCmd, corridorRateCheckCmd, corridorRemitCmd)
	rootCmd.AddCommand(corridorCmd)
}
