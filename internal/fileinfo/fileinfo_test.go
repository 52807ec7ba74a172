package fileinfo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestCapture(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a.img")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	c, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if c.Path != path {
		t.Errorf("Expected path %q, got %q", path, c.Path)
	}
	if c.Size != 10 {
		t.Errorf("Expected size 10, got %d", c.Size)
	}
	if c.Modified.IsZero() || c.Accessed.IsZero() {
		t.Error("Modified and Accessed should be set")
	}
	if c.ReadOnly() {
		t.Error("0644 file should not be read-only")
	}
}

func TestCapture_Missing(t *testing.T) {
	_, err := Capture(filepath.Join(t.TempDir(), "gone.img"))
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestCapture_Directory(t *testing.T) {
	if _, err := Capture(t.TempDir()); err == nil {
		t.Error("Capture should reject a directory")
	}
}

func TestReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.img")
	if err := os.WriteFile(path, []byte("data"), 0444); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	c, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !c.ReadOnly() {
		t.Error("0444 file should be read-only")
	}
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.img")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Pin known timestamps so the comparison does not depend on the clock
	atime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	mtime := time.Date(2019, 6, 7, 8, 9, 10, 0, time.UTC)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	before, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	// Overwrite the file, moving its timestamps forward
	if err := os.WriteFile(path, []byte("replaced"), 0644); err != nil {
		t.Fatalf("Failed to rewrite file: %v", err)
	}

	if err := before.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	after, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !after.Modified.Equal(mtime) {
		t.Errorf("Expected mtime %v, got %v", mtime, after.Modified)
	}
	if !after.Accessed.Equal(atime) {
		t.Errorf("Expected atime %v, got %v", atime, after.Accessed)
	}
}

func TestCapture_Owner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no numeric owners on windows")
	}
	path := filepath.Join(t.TempDir(), "a.img")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	c, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !c.Owner.Known() {
		t.Fatal("Expected a known owner")
	}
	if c.Owner.UID != os.Geteuid() {
		t.Errorf("Expected uid %d, got %d", os.Geteuid(), c.Owner.UID)
	}
}

func TestKeepInode_HardLink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.img")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	single, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if single.Links != 1 {
		t.Errorf("Expected 1 link, got %d", single.Links)
	}

	if err := os.Link(path, filepath.Join(dir, "b.img")); err != nil {
		t.Skipf("hard links not supported: %v", err)
	}
	linked, err := Capture(path)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if linked.Links != 2 {
		t.Errorf("Expected 2 links, got %d", linked.Links)
	}
	if !linked.KeepInode() {
		t.Error("A hard-linked file must keep its inode")
	}
}

func TestKeepInode_BirthTime(t *testing.T) {
	c := Candidate{Links: 1, Created: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	if c.KeepInode() != !birthTimeSettable {
		t.Errorf("KeepInode = %v with birthTimeSettable = %v", c.KeepInode(), birthTimeSettable)
	}

	c.Created = time.Time{}
	if c.KeepInode() {
		t.Error("A single-link file without a birth time can be replaced")
	}
}
