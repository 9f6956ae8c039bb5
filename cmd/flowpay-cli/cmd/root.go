package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"flowpay/internal/model"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "flowpay-cli",
	Short: "Operator CLI for the FlowPay payment engine",
	Long: `Command line client for the FlowPay HTTP API.
Create and drive collects, pools, corridors, FX pools and recurring
schedules against a running flowpay-server instance.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8080", "FlowPay server base URL")
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// call performs one API request and pretty-prints the JSON response.
// Mutating requests carry a fresh Idempotency-Key so an operator retry
// after a network failure cannot double-execute.
func call(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, serverAddr+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", model.NewID("cli"))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Write(raw)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func post(path string, body any) error {
	return call(http.MethodPost, path, body)
}

func get(path string) error {
	return call(http.MethodGet, path, nil)
}
