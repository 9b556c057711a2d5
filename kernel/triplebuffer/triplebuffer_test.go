package triplebuffer

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func checkPermutation[T any](t *testing.T, p *Producer[T], c *Consumer[T]) {
	t.Helper()
	free := p.s.free.Load() & indexMask
	seen := [3]bool{}
	for _, idx := range []uint32{p.writeIndex, c.readIndex, free} {
		if idx > 2 {
			t.Fatalf("slot index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("slot indices collide: write=%d read=%d free=%d", p.writeIndex, c.readIndex, free)
		}
		seen[idx] = true
	}
}

func TestInitialState(t *testing.T) {
	p, c := New(7).Split()

	if c.HasUpdate() {
		t.Fatalf("HasUpdate() = true before any publish, want false")
	}
	if got := *c.Read(); got != 7 {
		t.Fatalf("Read() = %d, want 7", got)
	}
	if _, ok := c.ReadUpdate(); ok {
		t.Fatalf("ReadUpdate() ok = true before any publish, want false")
	}
	checkPermutation(t, p, c)
}

func TestPublishThenRead(t *testing.T) {
	p, c := New(0).Split()

	*p.CurrentBuffer() = 42
	p.Publish()
	checkPermutation(t, p, c)

	if !c.HasUpdate() {
		t.Fatalf("HasUpdate() = false after publish, want true")
	}
	if got := *c.Read(); got != 42 {
		t.Fatalf("Read() = %d, want 42", got)
	}
	if c.HasUpdate() {
		t.Fatalf("HasUpdate() = true after Read, want false")
	}
	if got := *c.Read(); got != 42 {
		t.Fatalf("second Read() = %d, want 42", got)
	}
	if got := *c.ReadLast(); got != 42 {
		t.Fatalf("ReadLast() = %d, want 42", got)
	}
	checkPermutation(t, p, c)
}

func TestLatestValueWins(t *testing.T) {
	p, c := New(0).Split()

	for v := 1; v <= 5; v++ {
		p.Write(v)
		checkPermutation(t, p, c)
	}

	v, ok := c.ReadUpdate()
	if !ok {
		t.Fatalf("ReadUpdate() ok = false, want true")
	}
	if *v != 5 {
		t.Fatalf("ReadUpdate() = %d, want 5", *v)
	}
	if c.HasUpdate() {
		t.Fatalf("HasUpdate() = true after consuming the latest publish, want false")
	}
	checkPermutation(t, p, c)
}

func TestUpdateWithoutPublishKeepsSlot(t *testing.T) {
	p, c := New(0).Split()

	p.Write(1)
	if !c.Update() {
		t.Fatalf("Update() = false, want true")
	}
	before := c.readIndex
	if c.Update() {
		t.Fatalf("Update() = true without a new publish, want false")
	}
	if c.readIndex != before {
		t.Fatalf("read slot changed from %d to %d without a publish", before, c.readIndex)
	}
}

func TestFromFuncSeparateStorage(t *testing.T) {
	calls := 0
	p, c := FromFunc(func() []byte {
		calls++
		return make([]byte, 4)
	}).Split()
	if calls != 3 {
		t.Fatalf("generator called %d times, want 3", calls)
	}

	buf := p.CurrentBuffer()
	(*buf)[0] = 9
	if got := (*c.ReadLast())[0]; got != 0 {
		t.Fatalf("unpublished write visible to consumer: got %d, want 0", got)
	}
	p.Publish()
	if got := (*c.Read())[0]; got != 9 {
		t.Fatalf("Read()[0] = %d, want 9", got)
	}
}

type pair struct {
	a, b int
}

func TestConcurrentNoTearing(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(2)
	defer runtime.GOMAXPROCS(oldProcs)

	const last = 100_000

	p, c := New(pair{}).Split()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= last; i++ {
			buf := p.CurrentBuffer()
			buf.a = i
			buf.b = i
			p.Publish()
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	prev := 0
	timeout := time.After(10 * time.Second)
	for {
		v := c.Read()
		if v.a != v.b {
			t.Fatalf("torn read: a=%d b=%d", v.a, v.b)
		}
		if v.a < prev {
			t.Fatalf("Read() went backwards: %d after %d", v.a, prev)
		}
		prev = v.a

		select {
		case <-done:
			if got := c.Read().a; got != last {
				t.Fatalf("final Read() = %d, want %d", got, last)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for producer")
		default:
		}
	}
}
