package queue

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := New("a", "b")
	q.Push("c")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop returned empty, want %q", want)
		}
		if got != want {
			t.Errorf("Pop = %q, want %q", got, want)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop on drained queue should report empty")
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestQueue_ZeroValue(t *testing.T) {
	var q Queue
	if _, ok := q.Pop(); ok {
		t.Error("zero value queue should be empty")
	}
	q.Push("x")
	if got, _ := q.Pop(); got != "x" {
		t.Errorf("Pop = %q, want x", got)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New("a", "b", "c")
	q.Pop()

	if dropped := q.Clear(); dropped != 2 {
		t.Errorf("Clear dropped %d, want 2", dropped)
	}
	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", q.Len())
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop after Clear should report empty")
	}

	// Queue stays usable after being cleared
	q.Push("d")
	if got, ok := q.Pop(); !ok || got != "d" {
		t.Errorf("Pop after reuse = %q, %v", got, ok)
	}
}

func TestQueue_Snapshot(t *testing.T) {
	q := New("a", "b", "c")
	q.Pop()

	snap := q.Snapshot()
	if len(snap) != 2 || snap[0] != "b" || snap[1] != "c" {
		t.Errorf("Snapshot = %v, want [b c]", snap)
	}
	if q.Len() != 2 {
		t.Error("Snapshot should not consume items")
	}
}

func TestQueue_ConcurrentPopDeliversEachPathOnce(t *testing.T) {
	const total = 5000
	q := &Queue{}
	for i := 0; i < total; i++ {
		q.Push(fmt.Sprintf("file-%d", i))
	}

	var mu sync.Mutex
	seen := make(map[string]int, total)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				path, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[path]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("saw %d distinct paths, want %d", len(seen), total)
	}
	for path, count := range seen {
		if count != 1 {
			t.Errorf("%s delivered %d times", path, count)
		}
	}
}
