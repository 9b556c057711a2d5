//go:build !tinygo

package main

import (
	"os"

	"orchid/internal/buildinfo"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "orchid",
		Short:        "Hosted orchid kernel",
		Long:         `orchid boots the kernel on an emulated x86_64 machine and inspects its run reports`,
		Version:      buildinfo.Short(),
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().String("color", "", "colorize log output (auto|on|off), overrides [log].color")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
