package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"orchid/gui"
	"orchid/hal"
	"orchid/kernel/klog"
	"orchid/kernel/task"

	"tinygo.org/x/tinyfont"
)

var (
	panicBackground = color.RGBA{R: 0x80, A: 0xFF}
	panicText       = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// panicScreen returns the kernel panic handler: it logs the stack line by line
// and paints the failure onto the framebuffer. It runs with interrupts
// disabled and must return so the scheduler can halt the CPU.
func panicScreen(h hal.HAL, log *klog.Logger) func(task.PanicInfo) {
	return func(info task.PanicInfo) {
		lines := panicLines(info)
		for _, line := range lines[1:] {
			log.Errorf("%s", line)
		}

		disp := h.Display()
		if disp == nil {
			return
		}
		fb := disp.Framebuffer()
		if fb == nil {
			return
		}
		fb.ClearRGB(panicBackground.R, panicBackground.G, panicBackground.B)
		drawLines(panicDisplay{fb: fb}, gui.Pixel3x5, lines)
		_ = fb.Present()
	}
}

func panicLines(info task.PanicInfo) []string {
	lines := []string{
		"ORCHID PANIC",
		fmt.Sprintf("task: %s#%d", info.Name, info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	return lines
}

// drawLines wraps lines at the display width and stops at the bottom edge.
func drawLines(d panicDisplay, font tinyfont.Fonter, lines []string) {
	_, outbox := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outbox)
	fontHeight := int16(font.GetYAdvance())
	baseline := -int16(font.GetGlyph('0').Info().YOffset)
	if fontWidth <= 0 || fontHeight <= 0 {
		return
	}
	maxW, maxH := d.Size()
	cols := maxW / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(1)
	for _, line := range lines {
		for len(line) > 0 {
			if y+fontHeight > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(d, font, 1, y+baseline, chunk, panicText)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

// panicDisplay draws straight into the framebuffer; the compositor is not
// running any more.
type panicDisplay struct {
	fb hal.Framebuffer
}

func (d panicDisplay) Size() (x, y int16) {
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d panicDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d panicDisplay) Display() error { return nil }

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	var i int
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
