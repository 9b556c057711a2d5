// Package klog is the leveled kernel logger. Lines are written through the
// HAL logger so the same calls work on the host and on hardware consoles.
package klog

import (
	"fmt"
	"os"

	"orchid/hal"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Level controls logging verbosity.
type Level uint8

const (
	// LevelOff disables logging.
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace // every scheduling decision
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "error", "ERROR":
		return LevelError, nil
	case "warn", "WARN":
		return LevelWarn, nil
	case "info", "INFO":
		return LevelInfo, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "trace", "TRACE":
		return LevelTrace, nil
	default:
		return LevelOff, fmt.Errorf("invalid log level: %q (expected: off|error|warn|info|debug|trace)", s)
	}
}

// ColorEnabled resolves a color mode (auto|on|off) for output going to f.
func ColorEnabled(mode string, f *os.File) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return f != nil && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", mode)
	}
}

var tagColors = [...]*color.Color{
	LevelError: color.New(color.FgRed, color.Bold),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelInfo:  color.New(color.FgGreen),
	LevelDebug: color.New(color.FgCyan),
	LevelTrace: color.New(color.FgHiBlack),
}

// Logger filters and formats kernel log lines. A nil *Logger discards
// everything.
type Logger struct {
	out   hal.Logger
	level Level
	tags  [LevelTrace + 1]string
}

// New returns a logger writing lines at or below level to out.
func New(out hal.Logger, level Level, colored bool) *Logger {
	l := &Logger{out: out, level: level}
	for lv := LevelError; lv <= LevelTrace; lv++ {
		tag := fmt.Sprintf("[%-5s]", lv.String())
		if colored {
			c := *tagColors[lv]
			c.EnableColor()
			tag = c.Sprint(tag)
		}
		l.tags[lv] = tag
	}
	return l
}

// Level returns the most verbose level that is written.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelOff
	}
	return l.level
}

// Enabled reports whether lines at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != LevelOff && level <= l.level
}

func (l *Logger) Logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	l.out.WriteLineString(l.tags[level] + " " + fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) { l.Logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.Logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.Logf(LevelDebug, format, args...) }
func (l *Logger) Tracef(format string, args ...any) { l.Logf(LevelTrace, format, args...) }
