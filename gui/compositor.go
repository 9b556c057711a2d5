package gui

import (
	"fmt"

	"orchid/hal"
	"orchid/kernel/klog"
	"orchid/kernel/task"
)

// Compositor owns the framebuffer. Its task waits for Redraw messages and
// blits the newest canvas of every window.
type Compositor struct {
	fb      hal.Framebuffer
	log     *klog.Logger
	windows []*Window

	composed uint64
	failed   uint64
}

func NewCompositor(fb hal.Framebuffer, log *klog.Logger) *Compositor {
	return &Compositor{fb: fb, log: log}
}

// Add registers w and points its redraw notifications at handle. Windows
// are drawn in the order they were added.
func (c *Compositor) Add(w *Window, handle task.TypedHandle[Redraw]) {
	w.index = len(c.windows)
	w.notify = handle
	c.windows = append(c.windows, w)
}

func (c *Compositor) Builder() *task.Builder[Redraw] {
	return task.NewBuilderWithArg("compositor", compositorMain, c)
}

// Composed returns the number of presented frames.
func (c *Compositor) Composed() uint64 { return c.composed }

func compositorMain(r *task.Receiver[Redraw], c *Compositor) {
	for {
		ev := r.DequeueOrWait()
		pending := 1
		for {
			if _, ok := r.TryDequeue(); !ok {
				break
			}
			pending++
		}
		if err := c.Compose(); err != nil {
			c.failed++
			c.log.Warnf("compositor: redraw of window %d (+%d coalesced): %v", ev.Index, pending-1, err)
		}
	}
}

// Compose claims each window's newest canvas, blits it and presents the
// framebuffer.
func (c *Compositor) Compose() error {
	if c.fb == nil {
		return fmt.Errorf("gui: compose: no framebuffer")
	}
	c.fb.ClearRGB(0, 0, 0)
	for _, w := range c.windows {
		if err := w.consumer.Read().BlitTo(c.fb, w.X, w.Y); err != nil {
			return fmt.Errorf("gui: compose %q: %w", w.Title, err)
		}
	}
	if err := c.fb.Present(); err != nil {
		return fmt.Errorf("gui: present: %w", err)
	}
	c.composed++
	return nil
}
