//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"time"

	"code.hybscloud.com/atomix"
)

// errTicksDone stops the runner once the configured number of ticks was raised.
var errTicksDone = errors.New("tick limit reached")

// hostTimer emulates the LAPIC timer in periodic mode by raising its vector
// on the host CPU.
type hostTimer struct {
	cpu    *HostCPU
	vector uint8
	hz     int
	seq    atomix.Uint64

	last time.Time
	acc  time.Duration
}

func newHostTimer(cpu *HostCPU, hz int) *hostTimer {
	return &hostTimer{cpu: cpu, vector: VectorLAPICTimer, hz: hz}
}

func (t *hostTimer) Vector() uint8 { return t.vector }
func (t *hostTimer) Hz() int       { return t.hz }
func (t *hostTimer) Ticks() uint64 { return t.seq.LoadAcquire() }

func (t *hostTimer) period() time.Duration {
	return time.Second / time.Duration(t.hz)
}

// step raises one interrupt per whole period elapsed since the last call,
// catching up when the host ticker lags.
func (t *hostTimer) step(limit uint64) bool {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		return t.stepN(1, limit)
	}

	t.acc += now.Sub(t.last)
	t.last = now

	tickDur := t.period()
	ticks := uint64(t.acc / tickDur)
	if ticks == 0 {
		return false
	}
	t.acc = t.acc % tickDur
	return t.stepN(ticks, limit)
}

// stepN raises n ticks and reports whether limit (if non-zero) was reached.
func (t *hostTimer) stepN(n, limit uint64) bool {
	for i := uint64(0); i < n; i++ {
		seq := t.seq.Add(1)
		t.cpu.Raise(t.vector)
		if limit > 0 && seq >= limit {
			return true
		}
	}
	return false
}

// run ticks until ctx is done or limit ticks were raised.
func (t *hostTimer) run(ctx context.Context, limit uint64) error {
	tk := time.NewTicker(t.period())
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			if t.step(limit) {
				return errTicksDone
			}
		}
	}
}
