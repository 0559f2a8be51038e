package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatnotifier",
	Short: "ChatNotifier - Twitch chat notifications with sounds and scripts",
	Long: `ChatNotifier hosts the notifier subsystem behind a local call bridge.

"serve" starts the host and its HTTP endpoint; "call" sends a single
bridge call to a running host.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, callCmd, methodsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
