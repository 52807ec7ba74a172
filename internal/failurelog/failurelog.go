// Package failurelog appends skipped-file records to one text file per day.
package failurelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const header = "These files were not processed:"

// Logger is safe for concurrent use. Each Append opens, writes and closes
// the day's file so records land on disk as they happen.
type Logger struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	count int
}

// New returns a Logger writing into dir. A nil clock means time.Now.
func New(dir string, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{dir: dir, now: now}
}

// Path is the file the next Append writes to.
func (l *Logger) Path() string {
	return filepath.Join(l.dir, "skipped-files-"+l.now().Format("2006-01-02")+".txt")
}

// Append writes one record. The header is written first when the day's file
// is empty.
func (l *Logger) Append(category, message, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open failure log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat failure log: %w", err)
	}

	line := fmt.Sprintf("%s: %s File location: %s\n", category, message, path)
	if info.Size() == 0 {
		line = header + "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write failure log: %w", err)
	}

	l.count++
	return nil
}

// Count is the number of records appended through this Logger.
func (l *Logger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
