package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gobwas/glob"

	"shrink-go/internal/protect"
)

// extCandidates accepts files by extension.
type extCandidates string

func (e extCandidates) IsCandidate(path string) bool {
	return strings.EqualFold(filepath.Ext(path), string(e))
}

func createFiles(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		fullPath := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte("content"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

// queued drains the result queue into relative, sorted paths.
func queued(t *testing.T, result *WalkResult) []string {
	t.Helper()
	var rel []string
	for {
		path, ok := result.Queue.Pop()
		if !ok {
			break
		}
		r, err := filepath.Rel(result.Root, path)
		if err != nil {
			t.Fatalf("Rel failed: %v", err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	return rel
}

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	return dir
}

func TestWalk_CandidatesOnly(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{
		"a.img",
		"b.IMG",
		"notes.txt",
		"sub/c.img",
		"sub/deeper/d.img",
		"sub/deeper/e.jpg",
	})

	filter := NewFilter(extCandidates(".img"), protect.New(), nil)
	result := Walk(context.Background(), tmpDir, filter)

	got := queued(t, result)
	want := []string{"a.img", "b.IMG", "sub/c.img", "sub/deeper/d.img"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if result.Dirs != 3 {
		t.Errorf("Expected 3 directories scanned, got %d", result.Dirs)
	}
}

func TestWalk_ProtectedSubtreeSkipped(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{
		"a.img",
		"ProgramData/c.img",
		"ProgramData/nested/d.img",
		"ProgramData2/e.img",
	})

	roots := protect.New(filepath.Join(tmpDir, "programdata"))
	filter := NewFilter(extCandidates(".img"), roots, nil)
	result := Walk(context.Background(), tmpDir, filter)

	got := queued(t, result)
	want := []string{"ProgramData2/e.img", "a.img"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestWalk_ProtectedRootYieldsNothing(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{"app/x/a.img"})

	roots := protect.New(filepath.Join(tmpDir, "app"))
	filter := NewFilter(extCandidates(".img"), roots, nil)
	result := Walk(context.Background(), filepath.Join(tmpDir, "app", "x"), filter)

	if result.Queue.Len() != 0 {
		t.Errorf("Expected empty queue under a protected root, got %d", result.Queue.Len())
	}
}

func TestWalk_MissingOrFileRoot(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{"a.img"})
	filter := NewFilter(extCandidates(".img"), protect.New(), nil)

	for _, root := range []string{filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "a.img")} {
		result := Walk(context.Background(), root, filter)
		if result.Queue.Len() != 0 {
			t.Errorf("Walk(%s): expected empty queue, got %d", root, result.Queue.Len())
		}
		if len(result.Errors) == 0 {
			t.Errorf("Walk(%s): expected an error to be recorded", root)
		}
	}
}

func TestWalk_Exclusions(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{
		"keep.img",
		"skip.part.img",
		".git/objects/a.img",
		"cache/b.img",
		"photos/cache/c.img",
		"photos/d.img",
		"archive/raw/e.img",
		"archive/raw/x/f.img",
		"archive/g.img",
	})

	var globs []glob.Glob
	for _, p := range []string{".git", "*.part.img", "photos/cache", "archive/raw/**"} {
		globs = append(globs, glob.MustCompile(p, '/'))
	}

	filter := NewFilter(extCandidates(".img"), protect.New(), globs)
	result := Walk(context.Background(), tmpDir, filter)

	got := queued(t, result)
	want := []string{"archive/g.img", "cache/b.img", "keep.img", "photos/d.img"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestWalk_UnreadableDirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can list any directory")
	}

	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{"a.img", "locked/b.img", "open/c.img"})

	locked := filepath.Join(tmpDir, "locked")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	defer os.Chmod(locked, 0755)

	filter := NewFilter(extCandidates(".img"), protect.New(), nil)
	result := Walk(context.Background(), tmpDir, filter)

	got := queued(t, result)
	want := []string{"a.img", "open/c.img"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 recorded error, got %d", len(result.Errors))
	}
}

func TestWalk_SymlinkedRootResolved(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{"real/a.img"})

	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(filepath.Join(tmpDir, "real"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	filter := NewFilter(extCandidates(".img"), protect.New(), nil)
	result := Walk(context.Background(), link, filter)

	if result.Root != filepath.Join(tmpDir, "real") {
		t.Errorf("Expected resolved root, got %s", result.Root)
	}
	if result.Queue.Len() != 1 {
		t.Errorf("Expected 1 file, got %d", result.Queue.Len())
	}
}

func TestWalk_Cancelled(t *testing.T) {
	tmpDir := resolvedTempDir(t)
	createFiles(t, tmpDir, []string{"a.img", "sub/b.img"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	filter := NewFilter(extCandidates(".img"), protect.New(), nil)
	result := Walk(ctx, tmpDir, filter)

	if result.Queue.Len() != 0 {
		t.Errorf("Expected nothing queued after cancel, got %d", result.Queue.Len())
	}
}

func TestFilter_FolderAccepted(t *testing.T) {
	roots := protect.New("/ProgramData", "/Windows")
	filter := NewFilter(extCandidates(".img"), roots, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/ProgramData/app/x", false},
		{"/programdata", false},
		{"/Windows2", true},
		{"/Users/alice/Projects/photos", true},
	}
	for _, tt := range tests {
		if got := filter.FolderAccepted(tt.path); got != tt.want {
			t.Errorf("FolderAccepted(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
