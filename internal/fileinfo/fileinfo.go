// Package fileinfo captures the metadata of a file before it is staged and
// puts its timestamps back after the file has been replaced.
package fileinfo

import (
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Owner is the numeric user and group owning a file.
type Owner struct {
	UID int
	GID int
}

// NoOwner stands for an owner the platform does not expose as numbers.
var NoOwner = Owner{UID: -1, GID: -1}

func (o Owner) Known() bool {
	return o.UID >= 0 && o.GID >= 0
}

// Candidate is a snapshot of a regular file taken before it is processed.
// Created is zero on filesystems that do not record a birth time.
type Candidate struct {
	Path     string
	Size     int64
	Mode     fs.FileMode
	Owner    Owner
	Links    uint64
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// Capture stats path and records its size, mode, owner, link count and
// timestamps.
func Capture(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, err
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, &fs.PathError{Op: "capture", Path: path, Err: fmt.Errorf("not a regular file")}
	}

	created, accessed := platformTimes(path, info)
	return Candidate{
		Path:     path,
		Size:     info.Size(),
		Mode:     info.Mode(),
		Owner:    OwnerOf(info),
		Links:    linkCount(path, info),
		Created:  created,
		Modified: info.ModTime(),
		Accessed: accessed,
	}, nil
}

// ReadOnly reports whether the owner write bit is clear. On Windows the
// read-only attribute maps onto the same bit.
func (c Candidate) ReadOnly() bool {
	return c.Mode&0200 == 0
}

// KeepInode reports whether the file must be rewritten in place instead of
// being replaced by a new file. A new inode would split extra hard links, and
// on some platforms it carries a birth time that cannot be set back.
func (c Candidate) KeepInode() bool {
	if c.Links > 1 {
		return true
	}
	return !c.Created.IsZero() && !birthTimeSettable
}

// Restore writes the captured timestamps back onto the file at c.Path.
func (c Candidate) Restore() error {
	if err := os.Chtimes(c.Path, c.Accessed, c.Modified); err != nil {
		return err
	}
	if c.Created.IsZero() {
		return nil
	}
	return setCreated(c.Path, c.Created, c.Accessed, c.Modified)
}
