package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

type Bar struct {
	total      int64
	current    int64
	saved      int64
	width      int
	writer     io.Writer
	mu         sync.Mutex
	active     map[int]string
	enabled    bool
	lastUpdate time.Time
}

// New returns a bar for total files. Output is suppressed when w is not a
// terminal.
func New(total int64, w io.Writer) *Bar {
	return &Bar{
		total:      total,
		width:      40,
		writer:     w,
		active:     make(map[int]string),
		enabled:    isTerminal(w),
		lastUpdate: time.Now(),
	}
}

// Force enables or disables rendering regardless of the writer.
func (b *Bar) Force(enabled bool) *Bar {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
	return b
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Start records the file a worker picked up.
func (b *Bar) Start(worker int, path string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active[worker] = filepath.Base(path)
}

// Done counts a finished file and the bytes it saved.
func (b *Bar) Done(worker int, saved int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.active, worker)
	b.current++
	b.saved += saved

	if !b.enabled {
		return
	}
	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// Current returns the number of finished files.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// render must be called with mu already locked
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	current := b.current
	if current > b.total {
		current = b.total
	}
	percent := float64(current) / float64(b.total) * 100
	filledWidth := int(float64(b.width) * float64(current) / float64(b.total))
	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", b.width-filledWidth)

	names := make([]string, 0, len(b.active))
	for _, name := range b.active {
		names = append(names, name)
	}

	var display string
	if len(names) > 0 {
		if len(names) > 3 {
			display = fmt.Sprintf(" | %s, %s, %s +%d more", names[0], names[1], names[2], len(names)-3)
		} else {
			display = " | " + strings.Join(names, ", ")
		}
	}

	// Clear the line and write progress
	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d) saved %s%s",
		bar, int(percent), current, b.total, humanize.IBytes(uint64(max(b.saved, 0))), display)
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		return
	}
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
