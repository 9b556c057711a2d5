package task

import "orchid/kernel/mpsc"

// TypedHandle is a Handle plus the sending end of the task's message queue.
// Copies share both.
type TypedHandle[T any] struct {
	Handle
	producer *mpsc.Producer[T]
}

// Send enqueues v for the task and wakes it.
func (h TypedHandle[T]) Send(v T) {
	h.producer.Enqueue(v)
	h.Awake()
}

// Untyped returns the scheduling handle alone.
func (h TypedHandle[T]) Untyped() Handle {
	return h.Handle
}

// Receiver is the receiving end of a task's message queue. It belongs to the
// task and must not be used from any other task.
type Receiver[T any] struct {
	consumer *mpsc.Consumer[T]
	handle   TypedHandle[T]
	sched    *Scheduler
}

// TryDequeue returns the oldest message without blocking.
func (r *Receiver[T]) TryDequeue() (T, bool) {
	return r.consumer.Dequeue()
}

// Handle returns a handle that sends to this receiver.
func (r *Receiver[T]) Handle() TypedHandle[T] {
	return r.handle
}

// ApproximateLen returns the number of queued messages.
func (r *Receiver[T]) ApproximateLen() int {
	return r.consumer.ApproximateLen()
}
