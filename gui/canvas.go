// Package gui is a small windowing client of the kernel: window tasks render
// into triple-buffered canvases and a compositor task blits the newest ones to
// the framebuffer.
package gui

import (
	"fmt"
	"image/color"

	"orchid/hal"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

var _ drivers.Displayer = (*Canvas)(nil)

// Canvas is an off-screen RGB565 pixel buffer. It implements
// drivers.Displayer so tinyfont can draw into it.
type Canvas struct {
	w, h int
	pix  []uint16
}

func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Canvas{w: w, h: h, pix: make([]uint16, w*h)}
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

func (c *Canvas) Size() (x, y int16) {
	return int16(c.w), int16(c.h)
}

// SetPixel ignores out of range coordinates.
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= c.w || iy < 0 || iy >= c.h {
		return
	}
	c.pix[iy*c.w+ix] = hal.RGB565(col.R, col.G, col.B)
}

func (c *Canvas) Display() error { return nil }

// At returns the packed pixel at x, y, or 0 outside the canvas.
func (c *Canvas) At(x, y int) uint16 {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return 0
	}
	return c.pix[y*c.w+x]
}

func (c *Canvas) Fill(col color.RGBA) {
	p := hal.RGB565(col.R, col.G, col.B)
	for i := range c.pix {
		c.pix[i] = p
	}
}

// FillRect fills the intersection of the rectangle with the canvas.
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	x0, y0 := clamp(x, 0, c.w), clamp(y, 0, c.h)
	x1, y1 := clamp(x+w, 0, c.w), clamp(y+h, 0, c.h)
	p := hal.RGB565(col.R, col.G, col.B)
	for py := y0; py < y1; py++ {
		row := c.pix[py*c.w : (py+1)*c.w]
		for px := x0; px < x1; px++ {
			row[px] = p
		}
	}
}

// StrokeRect draws a one pixel outline.
func (c *Canvas) StrokeRect(x, y, w, h int, col color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	c.FillRect(x, y, w, 1, col)
	c.FillRect(x, y+h-1, w, 1, col)
	c.FillRect(x, y, 1, h, col)
	c.FillRect(x+w-1, y, 1, h, col)
}

// Text draws s with its top-left corner at x, y.
func (c *Canvas) Text(font tinyfont.Fonter, x, y int, s string, col color.RGBA) {
	_, off := fontCell(font)
	tinyfont.WriteLine(c, font, int16(x), int16(y)+off, s, col)
}

// BlitTo copies the canvas into fb with its top-left corner at x, y, clipping
// to the framebuffer bounds.
func (c *Canvas) BlitTo(fb hal.Framebuffer, x, y int) error {
	if fb == nil {
		return fmt.Errorf("gui: blit: no framebuffer")
	}
	if fb.Format() != hal.PixelFormatRGB565 {
		return fmt.Errorf("gui: blit: unsupported pixel format %d", fb.Format())
	}
	buf := fb.Buffer()
	if buf == nil {
		return hal.ErrNotImplemented
	}
	stride := fb.StrideBytes()
	x0, y0 := clamp(x, 0, fb.Width()), clamp(y, 0, fb.Height())
	x1, y1 := clamp(x+c.w, 0, fb.Width()), clamp(y+c.h, 0, fb.Height())
	for py := y0; py < y1; py++ {
		src := c.pix[(py-y)*c.w:]
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			p := src[px-x]
			buf[off] = byte(p)
			buf[off+1] = byte(p >> 8)
		}
	}
	return nil
}

// fontCell returns the line height of font and the distance from the top of a
// line to its baseline.
func fontCell(font tinyfont.Fonter) (height, baseline int16) {
	info := font.GetGlyph('A').Info()
	return int16(font.GetYAdvance()), -int16(info.YOffset)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
