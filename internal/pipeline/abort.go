package pipeline

import (
	"sync/atomic"

	"shrink-go/internal/queue"
)

// Abort is the run-wide stop signal. Tripping it empties the shared queue so
// workers fall out of their loop after the file they are on.
type Abort struct {
	queue   *queue.Queue
	tripped atomic.Bool
	dropped atomic.Int64
}

func NewAbort(q *queue.Queue) *Abort {
	return &Abort{queue: q}
}

// Trip sets the signal and drains the queue. Only the first call returns true.
func (a *Abort) Trip() bool {
	if !a.tripped.CompareAndSwap(false, true) {
		return false
	}
	a.dropped.Store(int64(a.queue.Clear()))
	return true
}

func (a *Abort) Tripped() bool {
	return a.tripped.Load()
}

// Dropped is how many queued paths the trip discarded.
func (a *Abort) Dropped() int {
	return int(a.dropped.Load())
}
