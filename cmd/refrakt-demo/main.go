package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "refrakt-demo",
		Short: "Demo application for the refrakt state container",
		Long: `refrakt-demo runs a counter application on a refrakt store.

The store composes logging, Prometheus, OpenTelemetry, snapshot and
async effect middlewares, and serves its state over HTTP:

  GET /state    current state as JSON
  GET /metrics  Prometheus metrics
  GET /ws       WebSocket pushing state on every change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("refrakt-demo %s (%s)\n", version, commit)
		},
	}
}
