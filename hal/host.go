//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig describes the emulated machine.
type HostConfig struct {
	// TimerHz is the LAPIC timer frequency. Default 1000.
	TimerHz int
	// Width and Height size the framebuffer. Default 320x240.
	Width  int
	Height int
	// Log receives kernel log lines. Default os.Stdout.
	Log io.Writer
}

func (c *HostConfig) setDefaults() {
	if c.TimerHz <= 0 {
		c.TimerHz = 1000
	}
	if c.Width <= 0 {
		c.Width = 320
	}
	if c.Height <= 0 {
		c.Height = 240
	}
	if c.Log == nil {
		c.Log = os.Stdout
	}
}

type hostHAL struct {
	logger *hostLogger
	cpu    *HostCPU
	timer  *hostTimer
	fb     *hostFramebuffer
}

// New returns a host HAL. The calling goroutine holds its CPU.
func New(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	cfg.setDefaults()
	cpu := NewHostCPU()
	return &hostHAL{
		logger: &hostLogger{w: cfg.Log},
		cpu:    cpu,
		timer:  newHostTimer(cpu, cfg.TimerHz),
		fb:     newHostFramebuffer(cfg.Width, cfg.Height),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) CPU() CPU         { return h.cpu }
func (h *hostHAL) Timer() Timer     { return h.timer }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
