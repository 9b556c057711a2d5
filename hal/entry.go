package hal

import (
	"fmt"
	"sync"
)

// EntryPoint is code a context can be resumed at for the first time. It
// receives the RDI and RSI registers of the context.
type EntryPoint func(rdi, rsi uint64)

// entryBase makes entry tokens look like higher-half kernel text addresses.
const entryBase uint64 = 0xFFFF_FFFF_8010_0000

var entries struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]EntryPoint
}

// RegisterEntry returns the address to load into RIP to start fn.
func RegisterEntry(fn EntryPoint) uint64 {
	entries.mu.Lock()
	defer entries.mu.Unlock()
	if entries.fns == nil {
		entries.fns = make(map[uint64]EntryPoint)
	}
	addr := entryBase + entries.next*0x10
	entries.next++
	entries.fns[addr] = fn
	return addr
}

func lookupEntry(addr uint64) (EntryPoint, error) {
	entries.mu.Lock()
	defer entries.mu.Unlock()
	fn, ok := entries.fns[addr]
	if !ok {
		return nil, fmt.Errorf("hal: jump to unmapped entry %#x", addr)
	}
	return fn, nil
}

var pinned struct {
	mu   sync.Mutex
	next uint64
	vals map[uint64]any
}

// Pin keeps v reachable and returns a register-sized handle for it. The
// handle is never zero.
func Pin(v any) uint64 {
	pinned.mu.Lock()
	defer pinned.mu.Unlock()
	if pinned.vals == nil {
		pinned.vals = make(map[uint64]any)
	}
	pinned.next++
	pinned.vals[pinned.next] = v
	return pinned.next
}

// Unpin releases the value behind h. It returns nil for unknown handles.
func Unpin(h uint64) any {
	pinned.mu.Lock()
	defer pinned.mu.Unlock()
	v, ok := pinned.vals[h]
	if !ok {
		return nil
	}
	delete(pinned.vals, h)
	return v
}
