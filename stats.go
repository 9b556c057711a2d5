//go:build !tinygo

package main

import (
	"orchid/app"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <report>",
		Short: "Print a run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.ReadReportFile(args[0])
			if err != nil {
				return err
			}
			return r.Format(cmd.OutOrStdout())
		},
	}
}
