package app

import (
	"fmt"

	"orchid/kernel/task"
)

// ball is passed back and forth between the two workers of a pair until no
// hits remain.
type ball struct {
	hits int
}

type worker struct {
	k       *Kernel
	partner task.TypedHandle[ball]
}

func workerMain(r *task.Receiver[ball], w *worker) {
	for {
		b := r.DequeueOrWait()
		if b.hits <= 0 {
			w.k.rallies++
			continue
		}
		w.partner.Send(ball{hits: b.hits - 1})
	}
}

// spawnWorkers starts n ping-pong pairs through the installed scheduler. The
// main task serves a ball to the first worker of each pair every frame.
func (k *Kernel) spawnWorkers(n int) error {
	for i := 0; i < n; i++ {
		ping, pong := &worker{k: k}, &worker{k: k}
		ph, err := task.SpawnTask(task.NewBuilderWithArg(fmt.Sprintf("ping%d", i), workerMain, ping))
		if err != nil {
			return fmt.Errorf("spawn worker pair %d: %w", i, err)
		}
		qh, err := task.SpawnTask(task.NewBuilderWithArg(fmt.Sprintf("pong%d", i), workerMain, pong))
		if err != nil {
			return fmt.Errorf("spawn worker pair %d: %w", i, err)
		}
		ping.partner, pong.partner = qh, ph
		k.servers = append(k.servers, ph)
	}
	return nil
}
