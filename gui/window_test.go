package gui

import (
	"testing"
	"time"

	"orchid/hal"
	"orchid/kernel/task"
)

type presentingFB struct {
	hal.Framebuffer
	presented chan struct{}
}

func (f *presentingFB) Present() error {
	err := f.Framebuffer.Present()
	select {
	case f.presented <- struct{}{}:
	default:
	}
	return err
}

func TestWindowRenderAndCompose(t *testing.T) {
	s := task.New(hal.NewHostCPU(), task.Options{})
	recv, _, err := task.Initialize[int](s)
	if err != nil {
		t.Fatalf("Initialize(): %v", err)
	}

	fb := newFramebuffer(t, 64, 48)
	w := NewWindow("DEMO", 10, 5, 40, 30)
	comp := NewCompositor(fb, nil)
	comp.Add(w, task.TypedHandle[Redraw]{})

	if err := comp.Compose(); err != nil {
		t.Fatalf("Compose() before any frame: %v", err)
	}
	if got := fbPixel(fb, 10, 5); got != 0 {
		t.Fatalf("pixel before the first publish = %#04x, want 0", got)
	}

	w.render(7, recv.Handle().Untyped())
	w.producer.Publish()
	if err := comp.Compose(); err != nil {
		t.Fatalf("Compose(): %v", err)
	}

	border := hal.RGB565(windowBorder.R, windowBorder.G, windowBorder.B)
	bar := hal.RGB565(windowTitleBar.R, windowTitleBar.G, windowTitleBar.B)
	bg := hal.RGB565(windowBackground.R, windowBackground.G, windowBackground.B)
	checks := []struct {
		x, y int
		want uint16
	}{
		{10, 5, border},
		{49, 34, border},
		{11, 6, bar},
		{47, 30, bg},
		{9, 5, 0},
		{50, 5, 0},
	}
	for _, c := range checks {
		if got := fbPixel(fb, c.x, c.y); got != c.want {
			t.Fatalf("pixel (%d, %d) = %#04x, want %#04x", c.x, c.y, got, c.want)
		}
	}
	if got := comp.Composed(); got != 2 {
		t.Fatalf("Composed() = %d, want 2", got)
	}

	// Without a new publish the last claimed canvas is drawn again.
	if err := comp.Compose(); err != nil {
		t.Fatalf("Compose() without a new frame: %v", err)
	}
	if got := fbPixel(fb, 10, 5); got != border {
		t.Fatalf("pixel after recompose = %#04x, want %#04x", got, border)
	}
}

func TestWindowTaskDrivesCompositor(t *testing.T) {
	fb := &presentingFB{Framebuffer: newFramebuffer(t, 64, 48), presented: make(chan struct{}, 1)}
	w := NewWindow("W", 0, 0, 20, 20)
	comp := NewCompositor(fb, nil)

	s := task.New(hal.NewHostCPU(), task.Options{})
	go func() {
		recv, _, err := task.Initialize[int](s)
		if err != nil {
			t.Errorf("Initialize(): %v", err)
			return
		}
		ch, err := task.Spawn(s, comp.Builder())
		if err != nil {
			t.Errorf("Spawn(compositor): %v", err)
			return
		}
		comp.Add(w, ch)
		wh, err := task.Spawn(s, w.Builder())
		if err != nil {
			t.Errorf("Spawn(window): %v", err)
			return
		}
		wh.Send(Frame{N: 1})
		wh.Send(Frame{N: 2})
		recv.DequeueOrWait()
	}()

	select {
	case <-fb.presented:
	case <-time.After(10 * time.Second):
		t.Fatal("compositor never presented")
	}
	border := hal.RGB565(windowBorder.R, windowBorder.G, windowBorder.B)
	if got := fbPixel(fb, 0, 0); got != border {
		t.Fatalf("pixel (0, 0) = %#04x, want the window border %#04x", got, border)
	}
	// Both frames were queued before the window ran; it renders the newest once.
	if got := w.Rendered(); got != 1 {
		t.Fatalf("Rendered() = %d, want 1", got)
	}
}
