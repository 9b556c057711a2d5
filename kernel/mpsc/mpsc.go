// Package mpsc implements an unbounded multi-producer, single-consumer queue.
//
// The queue is a singly linked list with a dummy node. Producers swap in a new
// tail and then link the previous tail to it; the single consumer follows the
// next pointer of its head. Enqueue never blocks and never fails.
package mpsc

import "sync/atomic"

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

type sharedState[T any] struct {
	_ [0]func() // prevent accidental copying.

	// tail is the producer end.
	tail atomic.Pointer[node[T]]
	// head is the consumer end; it always points at the current dummy node.
	head *node[T]
	len  atomic.Int64
}

func newSharedState[T any]() *sharedState[T] {
	dummy := &node[T]{}
	s := &sharedState[T]{head: dummy}
	s.tail.Store(dummy)
	return s
}

func (s *sharedState[T]) enqueue(v T) {
	n := &node[T]{value: v}
	prev := s.tail.Swap(n)
	prev.next.Store(n)
	s.len.Add(1)
}

func (s *sharedState[T]) dequeue() (T, bool) {
	var zero T
	head := s.head
	next := head.next.Load()
	if next == nil {
		return zero, false
	}
	v := next.value
	// next becomes the new dummy; drop its payload so the value is not kept
	// alive by the list.
	next.value = zero
	s.head = next
	head.next.Store(nil)
	s.len.Add(-1)
	return v, true
}

// Consumer is the receiving end of a queue. Only one goroutine (or task) may
// call Dequeue at a time.
type Consumer[T any] struct {
	s *sharedState[T]
}

// NewConsumer creates an empty queue and returns its consumer end.
func NewConsumer[T any]() *Consumer[T] {
	return &Consumer[T]{s: newSharedState[T]()}
}

// Dequeue removes the oldest visible value, returning false if the queue is empty.
func (c *Consumer[T]) Dequeue() (T, bool) {
	return c.s.dequeue()
}

// ApproximateLen returns the number of queued values. Concurrent producers may
// make the result stale immediately.
func (c *Consumer[T]) ApproximateLen() int {
	n := c.s.len.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Producer returns a new producer end bound to this queue.
func (c *Consumer[T]) Producer() *Producer[T] {
	return &Producer[T]{s: c.s}
}

// Producer is a sending end of a queue. It is safe for concurrent use and may be
// shared freely.
type Producer[T any] struct {
	s *sharedState[T]
}

// Enqueue appends v. Values from one producer are dequeued in call order.
func (p *Producer[T]) Enqueue(v T) {
	p.s.enqueue(v)
}
