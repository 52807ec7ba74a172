//go:build windows

package fileinfo

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

const birthTimeSettable = true

func platformTimes(path string, info fs.FileInfo) (created, accessed time.Time) {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, info.ModTime()
	}
	created = time.Unix(0, data.CreationTime.Nanoseconds())
	accessed = time.Unix(0, data.LastAccessTime.Nanoseconds())
	return created, accessed
}

func setCreated(path string, created, accessed, modified time.Time) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return &fs.PathError{Op: "settime", Path: path, Err: err}
	}
	defer windows.CloseHandle(h)

	ctime := windows.NsecToFiletime(created.UnixNano())
	atime := windows.NsecToFiletime(accessed.UnixNano())
	mtime := windows.NsecToFiletime(modified.UnixNano())
	if err := windows.SetFileTime(h, &ctime, &atime, &mtime); err != nil {
		return &fs.PathError{Op: "settime", Path: path, Err: err}
	}
	return nil
}
