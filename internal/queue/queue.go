// Package queue provides the FIFO of file paths shared by the scanner and the workers.
package queue

import "sync"

// Queue is a mutex-guarded FIFO of paths. The zero value is ready to use.
type Queue struct {
	mu    sync.Mutex
	items []string
	head  int
}

func New(paths ...string) *Queue {
	q := &Queue{}
	q.Push(paths...)
	return q
}

func (q *Queue) Push(paths ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, paths...)
}

// Pop removes and returns the oldest path. ok is false when the queue is empty.
func (q *Queue) Pop() (path string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return "", false
	}
	path = q.items[q.head]
	q.items[q.head] = ""
	q.head++

	// Reclaim the consumed prefix once the queue drains
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return path, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear drops every pending path and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := len(q.items) - q.head
	q.items = nil
	q.head = 0
	return dropped
}

// Snapshot returns the pending paths in queue order without consuming them.
func (q *Queue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.items)-q.head)
	copy(out, q.items[q.head:])
	return out
}
