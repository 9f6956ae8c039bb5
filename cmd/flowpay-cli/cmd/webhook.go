package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook subscriptions and inspect events",
}

var webhookSubscribeCmd = &cobra.Command{
	Use:   "subscribe <url>",
	Short: "Subscribe a URL to event types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, _ := cmd.Flags().GetStringSlice("events")
		return post("/v1/webhooks", map[string]any{
			"url":    args[0],
			"events": events,
		})
	},
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/webhooks")
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List emitted events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return get(fmt.Sprintf("/v1/events?limit=%d", limit))
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Aggregate snapshot across all primitives",
	RunE: func(cmd *cobra.Command, args []string) error {
		return get("/v1/analytics")
	},
}

func init() {
	webhookSubscribeCmd.Flags().StringSlice("events", nil, "Event types to subscribe (empty = all)")
	webhookCmd.AddCommand(webhookSubscribeCmd, webhookListCmd)

	eventsCmd.Flags().Int("limit", 100, "Max events to return")

	rootCmd.AddCommand(webhookCmd, eventsCmd, analyticsCmd)
}
