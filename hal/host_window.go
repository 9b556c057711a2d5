//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"

	"orchid/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

var errWindowClosed = errors.New("window closed")

// RunWindow boots the kernel and shows its framebuffer in a desktop window.
// It blocks until the window closes, the tick limit is reached or boot fails.
func RunWindow(ctx context.Context, boot BootFunc, cfg HeadlessConfig) error {
	h := newHost(cfg.Host)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	machineErr := make(chan error, 1)
	go func() { machineErr <- runMachine(ctx, h, boot, cfg.Ticks) }()

	g := &hostGame{h: h, done: machineErr}
	ebiten.SetWindowTitle("orchid (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if errors.Is(err, errWindowClosed) {
		return g.err
	}
	return err
}

type hostGame struct {
	h     *hostHAL
	img   *image.RGBA
	fbImg *ebiten.Image

	scratch []byte
	seen    uint64

	done <-chan error
	err  error
}

func (g *hostGame) Update() error {
	select {
	case err := <-g.done:
		g.err = err
		return errWindowClosed
	default:
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	if n := fb.snapshotRGB565(g.scratch); n != g.seen {
		g.seen = n
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
			r, gg, b := RGB888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := (i / 2) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
