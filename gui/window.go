package gui

import (
	"fmt"
	"image/color"

	"orchid/kernel/task"
	"orchid/kernel/triplebuffer"
)

// Frame asks a window to render frame N.
type Frame struct {
	N uint64
}

// Redraw tells the compositor that window Index published a new canvas.
type Redraw struct {
	Index int
}

var (
	windowBackground = color.RGBA{R: 0x20, G: 0x24, B: 0x30, A: 0xFF}
	windowBorder     = color.RGBA{R: 0x90, G: 0xA0, B: 0xC0, A: 0xFF}
	windowTitleBar   = color.RGBA{R: 0x40, G: 0x60, B: 0xA0, A: 0xFF}
	windowText       = color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
)

// Window is a rectangle on screen owned by one window task. The task renders
// into the producer end of a triple buffer; the compositor reads the consumer
// end.
type Window struct {
	Title string
	X, Y  int

	index    int
	producer *triplebuffer.Producer[Canvas]
	consumer *triplebuffer.Consumer[Canvas]
	notify   task.TypedHandle[Redraw]
	rendered uint64
}

func NewWindow(title string, x, y, w, h int) *Window {
	p, c := triplebuffer.FromFunc(func() Canvas { return *NewCanvas(w, h) }).Split()
	return &Window{Title: title, X: x, Y: y, producer: p, consumer: c}
}

// Builder returns the builder of the window's task. Spawn it after the window
// was added to a compositor.
func (w *Window) Builder() *task.Builder[Frame] {
	return task.NewBuilderWithArg("window:"+w.Title, windowMain, w)
}

// Rendered returns the number of frames the window task published.
func (w *Window) Rendered() uint64 { return w.rendered }

func windowMain(r *task.Receiver[Frame], w *Window) {
	for {
		f := r.DequeueOrWait()
		// Only the newest frame matters.
		for {
			next, ok := r.TryDequeue()
			if !ok {
				break
			}
			f = next
		}
		w.render(f.N, r.Handle().Untyped())
		w.producer.Publish()
		w.rendered++
		if w.notify.Valid() {
			w.notify.Send(Redraw{Index: w.index})
		}
	}
}

func (w *Window) render(frame uint64, self task.Handle) {
	c := w.producer.CurrentBuffer()
	c.Fill(windowBackground)

	lh, _ := fontCell(Pixel3x5)
	bar := int(lh) + 3
	c.FillRect(0, 0, c.Width(), bar, windowTitleBar)
	c.StrokeRect(0, 0, c.Width(), c.Height(), windowBorder)
	c.Text(Pixel3x5, 3, 2, w.Title, windowText)

	state := "SLEEPING"
	if self.Waking() {
		state = "WAKING"
	}
	lines := []string{
		fmt.Sprintf("FRAME %d", frame),
		fmt.Sprintf("TASK %d PRIO %d", self.ID(), self.Priority()),
		state,
	}
	y := bar + 3
	for _, line := range lines {
		c.Text(Pixel3x5, 3, y, line, windowText)
		y += int(lh)
	}
}
