//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"orchid/app"
	"orchid/config"
	"orchid/hal"
	"orchid/kernel/klog"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Boot the kernel",
		Long:  `Boot the kernel in a desktop window, or headless with --headless`,
		Args:  cobra.NoArgs,
		RunE:  runKernel,
	}
	cmd.Flags().String("config", "", "TOML configuration file")
	cmd.Flags().Bool("headless", false, "run without a window")
	cmd.Flags().Int("hz", 0, "timer frequency, overrides [timer].hz")
	cmd.Flags().Uint64("ticks", 0, "stop after N timer ticks (0 = run until interrupted)")
	cmd.Flags().String("log-level", "", "log level (off|error|warn|info|debug|trace), overrides [log].level")
	cmd.Flags().String("report", "", "write a msgpack run report to this file on exit")
	return cmd
}

func runKernel(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	colored, err := klog.ColorEnabled(cfg.Log.Color, os.Stdout)
	if err != nil {
		return err
	}
	headless, err := cmd.Flags().GetBool("headless")
	if err != nil {
		return fmt.Errorf("failed to get headless flag: %w", err)
	}
	ticks, err := cmd.Flags().GetUint64("ticks")
	if err != nil {
		return fmt.Errorf("failed to get ticks flag: %w", err)
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return fmt.Errorf("failed to get report flag: %w", err)
	}

	k := app.New(cfg, colored)
	hc := hal.HeadlessConfig{
		Host: hal.HostConfig{
			TimerHz: cfg.Timer.Hz,
			Width:   cfg.Display.Width,
			Height:  cfg.Display.Height,
			Log:     cmd.OutOrStdout(),
		},
		Ticks: ticks,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	run := hal.RunWindow
	if headless {
		run = hal.RunHeadless
	}
	err = run(ctx, k.Boot, hc)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}

	if reportPath != "" {
		r := k.Report()
		if err := app.WriteReportFile(reportPath, &r); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// loadRunConfig reads --config and applies the flag overrides.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if flags.Changed("hz") {
		hz, err := flags.GetInt("hz")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get hz flag: %w", err)
		}
		cfg.Timer.Hz = hz
		cfg.Timer.PreemptionHz = min(cfg.Timer.PreemptionHz, hz)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("color") {
		cfg.Log.Color, _ = flags.GetString("color")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
