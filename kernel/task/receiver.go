package task

import "code.hybscloud.com/iox"

// DequeueOrWait returns the oldest message, sleeping until one arrives.
//
// The state word is loaded before the queue is checked. If a sender enqueues
// and wakes the task after the check, the state has moved on and the
// compare-and-sleep fails, so the queue is checked again instead of sleeping
// through the wakeup.
func (r *Receiver[T]) DequeueOrWait() T {
	var bo iox.Backoff
	for {
		state := r.handle.LoadState()
		if v, ok := r.consumer.Dequeue(); ok {
			return v
		}
		if !r.handle.TryCompareAndSleep(state) {
			continue
		}
		if err := r.sched.TrySwitchContext(); err != nil {
			// Still asleep; the scheduler picks this task again only after a
			// Send wakes it, so spinning here just waits for the lock.
			bo.Wait()
			continue
		}
		bo.Reset()
	}
}
