package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"stackbridge/internal/bootstrap"
	"stackbridge/internal/bridge"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the analysis engine can be run and print its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := bridge.NewService(bridge.Options{
				Engine:  bootstrap.EngineConfig(cfg),
				Channel: bootstrap.BuildChannel(cfg),
			})
			defer svc.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.CheckStatus(cmd.Context()))
		},
	}
}
