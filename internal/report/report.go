package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"shrink-go/internal/pipeline"
)

const timeLayout = "2006-01-02 15:04:05"

// Outcome names how a run ended.
func Outcome(r *pipeline.Result) string {
	switch {
	case r.Fatal != nil:
		return "ABORTED"
	case r.Interrupted:
		return "INTERRUPTED"
	default:
		return "COMPLETED"
	}
}

// Format renders the run summary printed once all workers have stopped.
func Format(r *pipeline.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s\n\n", Outcome(r))
	fmt.Fprintf(&b, "  Started:   %s\n", r.Start.Format(timeLayout))
	fmt.Fprintf(&b, "  Finished:  %s (%s)\n", r.End.Format(timeLayout), r.End.Sub(r.Start).Round(time.Millisecond))
	fmt.Fprintf(&b, "  Workers:   %d\n", r.Workers)
	fmt.Fprintf(&b, "  Files:     %d processed, %d replaced, %d skipped, %d failed\n",
		r.Processed, r.Replaced, r.Skipped, r.Failed)
	if r.Dropped > 0 {
		fmt.Fprintf(&b, "  Dropped:   %d queued files not started\n", r.Dropped)
	}
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "  Original size:  %s\n", humanize.IBytes(uint64(r.Before)))
	fmt.Fprintf(&b, "  Resulting size: %s\n", humanize.IBytes(uint64(r.After)))
	fmt.Fprintf(&b, "  Compression:    %s\n", Compression(r.Totals))

	if r.Fatal != nil {
		fmt.Fprintf(&b, "\nUnexpected error: %s\n", r.Fatal.Category)
		fmt.Fprintf(&b, "  %v\n", r.Fatal.Err)
		if r.Fatal.Path != "" {
			fmt.Fprintf(&b, "  Occurred when working with file: %s\n", r.Fatal.Path)
		}
	}

	return b.String()
}

// Compression renders the saved bytes with 1024-based units and the saved
// share of the original size.
func Compression(t pipeline.Totals) string {
	saved := t.Saved()
	if saved < 0 {
		saved = 0
	}
	return fmt.Sprintf("%s (%.2f%%)", humanize.IBytes(uint64(saved)), t.Ratio()*100)
}
