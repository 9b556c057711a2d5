//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrKernelReturned is reported when the boot function returns without error.
// A running kernel never returns to its loader.
var ErrKernelReturned = errors.New("kernel returned")

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Host HostConfig
	// Ticks stops the run after N timer interrupts (0 = run until ctx is done).
	Ticks uint64
}

// BootFunc starts the kernel on the emulated machine. It runs on the goroutine
// holding the CPU and returns only if initialization fails.
type BootFunc func(HAL) error

// RunHeadless boots the kernel without opening a window and drives its timer
// until ctx is done or the tick limit is reached.
func RunHeadless(ctx context.Context, boot BootFunc, cfg HeadlessConfig) error {
	h := newHost(cfg.Host)
	return runMachine(ctx, h, boot, cfg.Ticks)
}

func runMachine(ctx context.Context, h *hostHAL, boot BootFunc, ticks uint64) error {
	bootErr := make(chan error, 1)
	go func() { bootErr <- boot(h) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.timer.run(gctx, ticks)
	})
	g.Go(func() error {
		select {
		case err := <-bootErr:
			if err == nil {
				return ErrKernelReturned
			}
			return fmt.Errorf("boot: %w", err)
		case <-gctx.Done():
			return nil
		}
	})

	err := g.Wait()
	if errors.Is(err, errTicksDone) {
		return nil
	}
	if err == nil {
		return ctx.Err()
	}
	return err
}
