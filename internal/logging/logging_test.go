package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown", "files", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug should be suppressed without verbose")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "files=3") {
		t.Errorf("Expected info record with key/value, got %q", out)
	}
	if !strings.Contains(out, "shrink-go") {
		t.Errorf("Expected prefix, got %q", out)
	}
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("detail")

	if !strings.Contains(buf.String(), "detail") {
		t.Errorf("Expected debug record in verbose mode, got %q", buf.String())
	}
}
