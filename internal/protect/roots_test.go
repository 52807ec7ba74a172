package protect

import (
	"path/filepath"
	"testing"
)

func TestCovers(t *testing.T) {
	base := t.TempDir()
	programData := filepath.Join(base, "ProgramData")
	windowsDir := filepath.Join(base, "Windows")
	roots := New(programData, windowsDir)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"root itself", programData, true},
		{"nested child", filepath.Join(programData, "app", "x"), true},
		{"case-insensitive match", filepath.Join(base, "programdata", "app"), true},
		{"case-insensitive root", filepath.Join(base, "WINDOWS"), true},
		{"sibling with shared prefix", filepath.Join(base, "Windows2"), false},
		{"child of prefix sibling", filepath.Join(base, "Windows2", "System32"), false},
		{"unrelated user folder", filepath.Join(base, "Users", "alice", "Projects", "photos"), false},
		{"parent of a root", base, false},
		{"unclean path", filepath.Join(base, "Users", "..", "ProgramData", ".", "cache"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roots.Covers(tt.path); got != tt.want {
				t.Errorf("Covers(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCovers_EmptySet(t *testing.T) {
	var roots Roots
	if roots.Covers("/anything") {
		t.Error("empty set should not cover any path")
	}
}

func TestNew_CleansAndDeduplicates(t *testing.T) {
	base := t.TempDir()
	roots := New(
		filepath.Join(base, "a"),
		filepath.Join(base, "a", "."),
		filepath.Join(base, "A"),
		"",
		"   ",
		filepath.Join(base, "b"),
	)

	if roots.Len() != 2 {
		t.Fatalf("expected 2 roots, got %d: %v", roots.Len(), roots.Paths())
	}
}

func TestPaths_ReturnsCopy(t *testing.T) {
	base := t.TempDir()
	roots := New(filepath.Join(base, "a"))

	paths := roots.Paths()
	paths[0] = "mutated"

	if roots.Paths()[0] == "mutated" {
		t.Error("Paths should not expose the internal slice")
	}
}

func TestDefault_IncludesExtra(t *testing.T) {
	extra := filepath.Join(t.TempDir(), "backups")
	roots := Default(extra)

	if !roots.Covers(filepath.Join(extra, "2024")) {
		t.Error("extra protected root should be honoured")
	}
	if roots.Len() < 2 {
		t.Errorf("expected platform defaults plus extra, got %v", roots.Paths())
	}
}
