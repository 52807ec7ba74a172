package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(&buf, "test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := otel.Tracer("tracing-test").Start(context.Background(), "unit-span")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !strings.Contains(buf.String(), "unit-span") {
		t.Errorf("Expected exported span, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shrink-go") {
		t.Errorf("Expected service name in resource, got %q", buf.String())
	}
}
