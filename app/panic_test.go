package app

import (
	"io"
	"strings"
	"sync"
	"testing"

	"orchid/hal"
	"orchid/kernel/klog"
	"orchid/kernel/task"

	"github.com/google/go-cmp/cmp"
)

type lineLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *lineLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func TestPanicLines(t *testing.T) {
	got := panicLines(task.PanicInfo{
		TaskID: 4,
		Name:   "bad",
		Value:  "boom",
		Stack:  []byte("goroutine 7 [running]:\n\tmain.go:12\n\n"),
	})
	want := []string{
		"ORCHID PANIC",
		"task: bad#4",
		"panic: boom",
		"stack:",
		"goroutine 7 [running]:",
		"  main.go:12",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("panicLines() mismatch (-want +got):\n%s", diff)
	}

	got = panicLines(task.PanicInfo{Name: "x", Value: 1})
	if last := got[len(got)-1]; last != "stack: unavailable" {
		t.Fatalf("last line = %q, want stack: unavailable", last)
	}
}

func TestPanicScreen(t *testing.T) {
	h := hal.New(hal.HostConfig{Width: 64, Height: 32, Log: io.Discard})
	var out lineLogger
	screen := panicScreen(h, klog.New(&out, klog.LevelError, false))
	screen(task.PanicInfo{TaskID: 2, Name: "bad", Value: "boom", Stack: []byte(strings.Repeat("frame\n", 20))})

	fb := h.Display().Framebuffer()
	buf := fb.Buffer()
	pixel := func(x, y int) uint16 {
		off := y*fb.StrideBytes() + x*2
		return uint16(buf[off]) | uint16(buf[off+1])<<8
	}
	bg := hal.RGB565(panicBackground.R, panicBackground.G, panicBackground.B)
	if got := pixel(0, 0); got != bg {
		t.Fatalf("pixel (0, 0) = %#04x, want background %#04x", got, bg)
	}
	// First glyph of "ORCHID": the top row of 'O' is .#.
	if got := pixel(2, 1); got != 0xFFFF {
		t.Fatalf("pixel (2, 1) = %#04x, want text", got)
	}
	if got := pixel(1, 1); got != bg {
		t.Fatalf("pixel (1, 1) = %#04x, want background", got)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.lines) == 0 || !strings.Contains(out.lines[0], "task: bad#2") {
		t.Fatalf("logged %q, want the task line first", out.lines)
	}
}

func TestTakeRunes(t *testing.T) {
	cases := []struct {
		in         string
		n          int16
		head, tail string
	}{
		{"héllo", 2, "hé", "llo"},
		{"abc", 5, "abc", ""},
		{"abc", 0, "", "abc"},
		{"", 3, "", ""},
	}
	for _, tc := range cases {
		head, tail := takeRunes(tc.in, tc.n)
		if head != tc.head || tail != tc.tail {
			t.Fatalf("takeRunes(%q, %d) = %q, %q; want %q, %q", tc.in, tc.n, head, tail, tc.head, tc.tail)
		}
	}
}
