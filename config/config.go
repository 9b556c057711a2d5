// Package config loads the boot configuration of the host machine and the
// kernel from a TOML file.
package config

import (
	"fmt"
	"strings"

	"orchid/kernel/klog"
	"orchid/kernel/task"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

type Config struct {
	Timer   TimerConfig   `toml:"timer"`
	Tasks   TasksConfig   `toml:"tasks"`
	Log     LogConfig     `toml:"log"`
	Display DisplayConfig `toml:"display"`
	Demo    DemoConfig    `toml:"demo"`
}

type TimerConfig struct {
	// Hz is the LAPIC timer frequency.
	Hz int `toml:"hz"`
	// PreemptionHz is how often the running task is preempted.
	PreemptionHz int `toml:"preemption_hz"`
}

type TasksConfig struct {
	StackSize int `toml:"stack_size"`
	Priority  int `toml:"priority"`
}

type LogConfig struct {
	Level string `toml:"level"`
	Color string `toml:"color"`
}

type DisplayConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type DemoConfig struct {
	// Windows is the number of demo window tasks.
	Windows int `toml:"windows"`
	// Workers is the number of ping-pong worker pairs.
	Workers int `toml:"workers"`
}

const (
	maxDisplaySide = 4096
	maxWindows     = 8
	maxWorkers     = 16
	minStackSize   = 4 << 10
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Timer:   TimerConfig{Hz: 1000, PreemptionHz: 50},
		Tasks:   TasksConfig{StackSize: task.DefaultStackSize, Priority: int(task.DefaultPriority)},
		Log:     LogConfig{Level: "info", Color: "auto"},
		Display: DisplayConfig{Width: 320, Height: 240},
		Demo:    DemoConfig{Windows: 2, Workers: 2},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and names the offending key.
func (c Config) Validate() error {
	if c.Timer.Hz <= 0 {
		return fmt.Errorf("[timer].hz must be positive, got %d", c.Timer.Hz)
	}
	if c.Timer.PreemptionHz <= 0 || c.Timer.PreemptionHz > c.Timer.Hz {
		return fmt.Errorf("[timer].preemption_hz must be in 1..%d, got %d", c.Timer.Hz, c.Timer.PreemptionHz)
	}
	if c.Tasks.StackSize < minStackSize {
		return fmt.Errorf("[tasks].stack_size must be at least %d, got %d", minStackSize, c.Tasks.StackSize)
	}
	if _, err := c.TaskPriority(); err != nil {
		return err
	}
	if _, err := klog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("[log].level: %w", err)
	}
	switch c.Log.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[log].color must be auto, on or off, got %q", c.Log.Color)
	}
	if c.Display.Width <= 0 || c.Display.Width > maxDisplaySide {
		return fmt.Errorf("[display].width must be in 1..%d, got %d", maxDisplaySide, c.Display.Width)
	}
	if c.Display.Height <= 0 || c.Display.Height > maxDisplaySide {
		return fmt.Errorf("[display].height must be in 1..%d, got %d", maxDisplaySide, c.Display.Height)
	}
	if c.Demo.Windows < 0 || c.Demo.Windows > maxWindows {
		return fmt.Errorf("[demo].windows must be in 0..%d, got %d", maxWindows, c.Demo.Windows)
	}
	if c.Demo.Workers < 0 || c.Demo.Workers > maxWorkers {
		return fmt.Errorf("[demo].workers must be in 0..%d, got %d", maxWorkers, c.Demo.Workers)
	}
	return nil
}

// TicksPerPreemption is the number of timer ticks in one time slice.
func (c Config) TicksPerPreemption() (uint32, error) {
	if c.Timer.PreemptionHz <= 0 {
		return 0, fmt.Errorf("[timer].preemption_hz must be positive, got %d", c.Timer.PreemptionHz)
	}
	n, err := safecast.Conv[uint32](c.Timer.Hz / c.Timer.PreemptionHz)
	if err != nil {
		return 0, fmt.Errorf("[timer]: ticks per preemption: %w", err)
	}
	return n, nil
}

// TaskPriority is the default priority of spawned tasks.
func (c Config) TaskPriority() (task.Priority, error) {
	p, err := safecast.Conv[uint8](c.Tasks.Priority)
	if err != nil {
		return 0, fmt.Errorf("[tasks].priority: %w", err)
	}
	return task.Priority(p), nil
}

// LogLevel returns the parsed [log].level. Call Validate first.
func (c Config) LogLevel() klog.Level {
	lv, err := klog.ParseLevel(c.Log.Level)
	if err != nil {
		return klog.LevelInfo
	}
	return lv
}

// TaskOptions converts the [tasks] and [timer] sections to scheduler options.
func (c Config) TaskOptions(log *klog.Logger) (task.Options, error) {
	ticks, err := c.TicksPerPreemption()
	if err != nil {
		return task.Options{}, err
	}
	prio, err := c.TaskPriority()
	if err != nil {
		return task.Options{}, err
	}
	return task.Options{
		Logger:             log,
		TicksPerPreemption: ticks,
		StackSize:          c.Tasks.StackSize,
		Priority:           prio,
	}, nil
}
