package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackbridge/internal/bootstrap"
	"stackbridge/internal/shared/metrics"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale request payload files once",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := bootstrap.BuildChannel(cfg)
			removed, err := channel.Sweep(cfg.Payload.SweepMaxAge)
			metrics.AddPayloadFilesSwept(removed)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d payload file(s) from %s\n", removed, channel.Dir())
			return err
		},
	}
}
