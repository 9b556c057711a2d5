package task

import (
	"sync/atomic"
	"testing"
)

func TestHandleStateWord(t *testing.T) {
	var gen atomic.Uint64
	h := newHandle(newID(), "t", DefaultPriority, true, &gen)

	steps := []struct {
		op     func()
		state  uint64
		waking bool
	}{
		{func() {}, 1, true},
		{h.PutSleep, 2, false},
		{h.PutSleep, 4, false},
		{h.Awake, 7, true},
		{h.Awake, 9, true},
		{func() { h.SetWaking(false) }, 10, false},
	}
	for i, st := range steps {
		st.op()
		if got := h.LoadState(); got != st.state {
			t.Fatalf("step %d: LoadState() = %d, want %d", i, got, st.state)
		}
		if got := h.Waking(); got != st.waking {
			t.Fatalf("step %d: Waking() = %v, want %v", i, got, st.waking)
		}
	}
	if got := gen.Load(); got != 5 {
		t.Fatalf("generation = %d, want 5", got)
	}

	h.SetPriority(42)
	if got := h.Priority(); got != 42 {
		t.Fatalf("Priority() = %d, want 42", got)
	}
	if got := gen.Load(); got != 6 {
		t.Fatalf("generation after SetPriority = %d, want 6", got)
	}
}

func TestTryCompareAndSleepFailsAfterWake(t *testing.T) {
	var gen atomic.Uint64
	h := newHandle(newID(), "t", DefaultPriority, true, &gen)

	observed := h.LoadState()
	h.Awake() // a sender got in between
	if h.TryCompareAndSleep(observed) {
		t.Fatalf("TryCompareAndSleep(stale state) = true, want false")
	}
	if !h.Waking() {
		t.Fatalf("Waking() = false after failed compare-and-sleep")
	}

	observed = h.LoadState()
	before := gen.Load()
	if !h.TryCompareAndSleep(observed) {
		t.Fatalf("TryCompareAndSleep(current state) = false, want true")
	}
	if h.Waking() {
		t.Fatalf("Waking() = true after compare-and-sleep")
	}
	if got := h.LoadState(); got != (observed+2)&^1 {
		t.Fatalf("LoadState() = %d, want %d", got, (observed+2)&^1)
	}
	if gen.Load() == before {
		t.Fatalf("compare-and-sleep did not bump the generation")
	}
}
