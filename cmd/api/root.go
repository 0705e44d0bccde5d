package main

import (
	"os"

	"github.com/spf13/cobra"

	"stackbridge/internal/shared/config"
	"stackbridge/internal/shared/telemetry"
)

var (
	cfg     config.Config
	rootCmd = &cobra.Command{
		Use:          "stackbridge",
		Short:        "stackbridge serves stack recommendations backed by an external analysis engine",
		SilenceUsage: true,
	}
)

// Execute runs the root command. Without a subcommand it serves HTTP.
func Execute() error {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		telemetry.Configure(os.Stderr, cfg.LogLevel)
	}
	serve := serveCmd()
	rootCmd.RunE = serve.RunE
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(probeCmd())
	return rootCmd.Execute()
}
