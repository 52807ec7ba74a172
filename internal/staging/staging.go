// Package staging provides the per-worker scratch files a file is copied into
// before it is transformed, and the commit that moves a result back over the
// original.
package staging

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/xattr"

	"shrink-go/internal/fileinfo"
	"shrink-go/internal/hash"
)

// Area is the directory holding every worker's staging file for one run.
type Area struct {
	dir    string
	verify bool
}

// NewArea creates dir if needed. With verify set, every commit re-reads the
// written file and compares it with the staged content before the rename.
func NewArea(dir string, verify bool) (*Area, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Area{dir: dir, verify: verify}, nil
}

func (a *Area) Dir() string {
	return a.dir
}

// Acquire creates a handle with a unique name. The caller owns it until
// Release.
func (a *Area) Acquire() (*Handle, error) {
	name := uuid.NewString()
	path := filepath.Join(a.dir, "worker-"+name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return &Handle{name: name, path: path, file: f, verify: a.verify}, nil
}

// Close removes the area directory when no handle is left in it.
func (a *Area) Close() error {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(a.dir)
}

// Handle holds at most one staged file at a time. It is not safe for
// concurrent use.
type Handle struct {
	name   string
	path   string
	file   *os.File
	verify bool
}

func (h *Handle) Name() string {
	return h.name
}

// Stage replaces the handle content with a copy of src.
func (h *Handle) Stage(src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := h.reset(); err != nil {
		return err
	}
	if _, err := io.Copy(h.file, in); err != nil {
		return fmt.Errorf("failed to stage %s: %w", src, err)
	}
	_, err = h.file.Seek(0, io.SeekStart)
	return err
}

// Stream exposes the staged content for in-place transformation.
func (h *Handle) Stream() *os.File {
	return h.file
}

// Len returns the current length of the staged content.
func (h *Handle) Len() (int64, error) {
	info, err := h.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CommitTo replaces dst with the staged content. The bytes are written to a
// sibling temporary file, synced, optionally verified, given dst's owner,
// permissions and extended attributes, then renamed over dst. dst is never
// left partially written.
func (h *Handle) CommitTo(dst string, perm fs.FileMode, owner fileinfo.Owner) (err error) {
	tmp := sibling(dst, "shrink")
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm.Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	if err = h.writeTo(out); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	if h.verify {
		if err = h.verifyCopy(tmp); err != nil {
			return err
		}
	}

	if err = chown(tmp, owner); err != nil {
		return err
	}
	// The umask may have narrowed the mode given to OpenFile, and chown may
	// have cleared setuid bits
	if err = os.Chmod(tmp, perm.Perm()); err != nil {
		return err
	}
	copyXattrs(dst, tmp)

	return os.Rename(tmp, dst)
}

// Overwrite writes the staged content into dst's existing inode, so hard
// links and everything else attached to the inode stay as they were. A copy
// of the original is kept beside dst until the new content is synced and
// verified, and is written back if the overwrite fails.
func (h *Handle) Overwrite(dst string) error {
	backup := sibling(dst, "orig")
	if err := copyFile(dst, backup); err != nil {
		os.Remove(backup)
		return err
	}

	if err := h.overwrite(dst); err != nil {
		if rerr := copyInto(backup, dst); rerr != nil {
			return fmt.Errorf("%w; original kept at %s: %v", err, backup, rerr)
		}
		os.Remove(backup)
		return err
	}
	return os.Remove(backup)
}

func (h *Handle) overwrite(dst string) error {
	out, err := os.OpenFile(dst, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if err := h.writeTo(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if h.verify {
		return h.verifyCopy(dst)
	}
	return nil
}

// writeTo copies the staged content over the start of out, cuts out to the
// same length and syncs it.
func (h *Handle) writeTo(out *os.File) error {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	n, err := io.Copy(out, h.file)
	if err != nil {
		return err
	}
	if err := out.Truncate(n); err != nil {
		return err
	}
	return out.Sync()
}

func (h *Handle) verifyCopy(path string) error {
	want, err := hash.HashSeeker(h.file)
	if err != nil {
		return err
	}
	got, err := hash.HashFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return &fs.PathError{Op: "verify", Path: path, Err: fmt.Errorf("digest %s, staged %s", got, want)}
	}
	return nil
}

// Release closes and deletes the staging file.
func (h *Handle) Release() error {
	cerr := h.file.Close()
	rerr := os.Remove(h.path)
	if cerr != nil {
		return cerr
	}
	if rerr != nil && !os.IsNotExist(rerr) {
		return rerr
	}
	return nil
}

func (h *Handle) reset() error {
	if err := h.file.Truncate(0); err != nil {
		return err
	}
	_, err := h.file.Seek(0, io.SeekStart)
	return err
}

func sibling(path, tag string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+tag+"-"+uuid.NewString())
}

// copyFile copies src to a new file dst and syncs it.
func copyFile(src, dst string) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if err := copyAndSync(src, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyInto rewrites the existing file dst with the content of src.
func copyInto(src, dst string) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if err := copyAndSync(src, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyAndSync(src string, out *os.File) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// chown gives path the wanted owner unless it already has it.
func chown(path string, owner fileinfo.Owner) error {
	if !owner.Known() {
		return nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if fileinfo.OwnerOf(info) == owner {
		return nil
	}
	return os.Lchown(path, owner.UID, owner.GID)
}

// copyXattrs is best effort: filesystems without extended attributes, or
// attributes the process may not write, are skipped.
func copyXattrs(src, dst string) {
	names, err := xattr.List(src)
	if err != nil {
		return
	}
	for _, name := range names {
		value, err := xattr.Get(src, name)
		if err != nil {
			continue
		}
		_ = xattr.Set(dst, name, value)
	}
}
