package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"chatnotifier/internal/api/middleware"
	"chatnotifier/internal/bridge"
	"chatnotifier/internal/client"

	"github.com/spf13/cobra"
)

var (
	callAddr    string
	callAPIKey  string
	callParams  string
	callTimeout time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <method>",
	Short: "Send one bridge call to a running host",
	Example: `  chatnotifier call get_twitch_connection_status
  chatnotifier call printer --params '["hello"]'
  chatnotifier call set_config_json --params '["{\"show_time_seconds\": 8}"]'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(callParams)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
		defer cancel()

		c := client.NewHTTPClient(callAddr, callAPIKey, slog.New(slog.DiscardHandler))
		result, err := c.Call(ctx, args[0], params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(result))
		return nil
	},
}

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the methods a host accepts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, m := range bridge.Methods() {
			fmt.Fprintln(cmd.OutOrStdout(), m.String())
		}
	},
}

func init() {
	callCmd.Flags().StringVar(&callAddr, "addr", "http://127.0.0.1:7373", "Host base URL")
	callCmd.Flags().StringVar(&callAPIKey, "api-key", os.Getenv("CHATNOTIFIER_SECURITY_API_KEY"), "API key sent in the "+middleware.APIKeyHeader+" header")
	callCmd.Flags().StringVarP(&callParams, "params", "p", "", "Call parameters as JSON (a list or a single value)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 30*time.Second, "How long to wait for the result")
}

func parseParams(raw string) (bridge.Params, error) {
	if raw == "" {
		return bridge.NoParams(), nil
	}
	var params bridge.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return bridge.Params{}, fmt.Errorf("invalid --params: %w", err)
	}
	return params, nil
}
