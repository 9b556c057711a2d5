// Package triplebuffer publishes the latest value of frequently overwritten
// state from one producer to one consumer without blocking either side.
//
// Three slots are preallocated. At any instant the producer owns one (its
// write slot), the consumer owns one (its read slot) and the third is the
// shared "free" slot named by a single atomic word. Publishing swaps the write
// slot into the free position; updating swaps the read slot out of it. Values
// the consumer never claims are overwritten: the latest value wins.
package triplebuffer

import "sync/atomic"

const (
	newerBit  uint32 = 0x10
	indexMask uint32 = 0x03
)

type sharedState[T any] struct {
	_ [0]func() // prevent accidental copying.

	buffers [3]T
	// free holds the index of the free slot, or'ed with newerBit when that slot
	// was published and not yet claimed by the consumer.
	free atomic.Uint32
}

// TripleBuffer is an unsplit buffer. Call Split to obtain both ends.
type TripleBuffer[T any] struct {
	producer *Producer[T]
	consumer *Consumer[T]
}

// New returns a buffer whose three slots start as copies of v.
//
// The copy is shallow: if T holds pointers or slices, use FromFunc so each slot
// gets its own backing storage.
func New[T any](v T) *TripleBuffer[T] {
	return FromFunc(func() T { return v })
}

// FromFunc returns a buffer whose three slots are initialized by calling gen
// three times.
func FromFunc[T any](gen func() T) *TripleBuffer[T] {
	s := &sharedState[T]{}
	for i := range s.buffers {
		s.buffers[i] = gen()
	}
	s.free.Store(2)
	return &TripleBuffer[T]{
		producer: &Producer[T]{s: s, writeIndex: 1},
		consumer: &Consumer[T]{s: s, readIndex: 0},
	}
}

// Split returns the producer and consumer ends.
func (b *TripleBuffer[T]) Split() (*Producer[T], *Consumer[T]) {
	return b.producer, b.consumer
}

// Producer is the writing end. It must be used by a single goroutine or task.
type Producer[T any] struct {
	s          *sharedState[T]
	writeIndex uint32
}

// CurrentBuffer returns the private, not yet published slot.
func (p *Producer[T]) CurrentBuffer() *T {
	return &p.s.buffers[p.writeIndex]
}

// Write stores v into the current slot and publishes it.
func (p *Producer[T]) Write(v T) {
	*p.CurrentBuffer() = v
	p.Publish()
}

// Publish makes the current slot the newest value and takes the previous free
// slot as the next write target.
func (p *Producer[T]) Publish() {
	prev := p.s.free.Swap(p.writeIndex | newerBit)
	p.writeIndex = prev & indexMask
}

// Consumer is the reading end. It must be used by a single goroutine or task.
type Consumer[T any] struct {
	s         *sharedState[T]
	readIndex uint32
}

// HasUpdate reports whether a value newer than the last claimed one is published.
func (c *Consumer[T]) HasUpdate() bool {
	return c.s.free.Load()&newerBit != 0
}

// Update claims the published slot if it is newer, returning whether the read
// slot changed.
func (c *Consumer[T]) Update() bool {
	if !c.HasUpdate() {
		return false
	}
	prev := c.s.free.Swap(c.readIndex)
	c.readIndex = prev & indexMask
	return true
}

// Read claims the newest value if there is one and returns the read slot.
//
// The returned pointer stays valid until the next Update, Read or ReadUpdate.
func (c *Consumer[T]) Read() *T {
	c.Update()
	return &c.s.buffers[c.readIndex]
}

// ReadLast returns the last claimed value without checking for updates.
func (c *Consumer[T]) ReadLast() *T {
	return &c.s.buffers[c.readIndex]
}

// ReadUpdate returns the newest value only if it was not claimed before.
func (c *Consumer[T]) ReadUpdate() (*T, bool) {
	if !c.Update() {
		return nil, false
	}
	return &c.s.buffers[c.readIndex], true
}
