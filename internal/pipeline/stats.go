package pipeline

import "sync"

// Totals is a point-in-time copy of the run counters. Before and After only
// include files whose processing completed.
type Totals struct {
	Processed int
	Replaced  int
	Skipped   int
	Failed    int
	Before    int64
	After     int64
}

// Saved is the number of bytes removed from the processed files.
func (t Totals) Saved() int64 {
	return t.Before - t.After
}

// Ratio is the fraction of the original size that was saved.
func (t Totals) Ratio() float64 {
	if t.Before == 0 {
		return 0
	}
	return float64(t.Saved()) / float64(t.Before)
}

// Aggregator accumulates Totals from every worker. Each update takes the
// lock once so a file's count and sizes land together.
type Aggregator struct {
	mu     sync.Mutex
	totals Totals
}

func (a *Aggregator) Record(before, after int64, replaced bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals.Processed++
	a.totals.Before += before
	a.totals.After += after
	if replaced {
		a.totals.Replaced++
	}
}

func (a *Aggregator) Skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals.Skipped++
}

func (a *Aggregator) Fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals.Failed++
}

func (a *Aggregator) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals
}
