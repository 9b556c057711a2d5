package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orchid/kernel/klog"
	"orchid/kernel/task"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orchid.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}
	ticks, err := cfg.TicksPerPreemption()
	if err != nil || ticks != task.DefaultTicksPerPreemption {
		t.Fatalf("TicksPerPreemption() = %d, %v; want %d", ticks, err, task.DefaultTicksPerPreemption)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[timer]
hz = 200
preemption_hz = 20

[log]
level = "debug"
color = "off"

[demo]
windows = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	want := Default()
	want.Timer = TimerConfig{Hz: 200, PreemptionHz: 20}
	want.Log = LogConfig{Level: "debug", Color: "off"}
	want.Demo.Windows = 3
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.LogLevel(); got != klog.LevelDebug {
		t.Fatalf("LogLevel() = %v, want debug", got)
	}

	opts, err := cfg.TaskOptions(nil)
	if err != nil {
		t.Fatalf("TaskOptions(): %v", err)
	}
	if opts.TicksPerPreemption != 10 || opts.Priority != task.DefaultPriority || opts.StackSize != task.DefaultStackSize {
		t.Fatalf("TaskOptions() = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[timer\nhz = 1", "failed to parse TOML"},
		{"unknown key", "[timer]\nfrequency = 10\n", "unknown keys: timer.frequency"},
		{"unknown section", "[network]\nmtu = 1500\n", "network.mtu"},
		{"zero hz", "[timer]\nhz = 0\n", "[timer].hz"},
		{"preemption faster than timer", "[timer]\nhz = 10\npreemption_hz = 20\n", "[timer].preemption_hz"},
		{"priority overflow", "[tasks]\npriority = 300\n", "[tasks].priority"},
		{"negative priority", "[tasks]\npriority = -1\n", "[tasks].priority"},
		{"small stack", "[tasks]\nstack_size = 128\n", "[tasks].stack_size"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "[log].level"},
		{"bad color", "[log]\ncolor = \"sometimes\"\n", "[log].color"},
		{"wide display", "[display]\nwidth = 5000\n", "[display].width"},
		{"too many windows", "[demo]\nwindows = 9\n", "[demo].windows"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("Load() succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) || !strings.HasPrefix(err.Error(), path) {
				t.Fatalf("Load() error = %q, want %q prefixed by the path", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load() of a missing file succeeded")
	}
}
