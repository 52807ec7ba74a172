package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New returns the console logger. Debug records are only emitted in
// verbose mode.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "shrink-go",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}
