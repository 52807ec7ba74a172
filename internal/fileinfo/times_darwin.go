//go:build darwin

package fileinfo

import (
	"encoding/binary"
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

const birthTimeSettable = true

func platformTimes(path string, info fs.FileInfo) (created, accessed time.Time) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, info.ModTime()
	}
	created = time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	accessed = time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)
	return created, accessed
}

func setCreated(path string, created, accessed, modified time.Time) error {
	attrs := unix.Attrlist{
		Bitmapcount: unix.ATTR_BIT_MAP_COUNT,
		Commonattr:  unix.ATTR_CMN_CRTIME,
	}
	// struct timespec
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(created.Unix()))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(created.Nanosecond()))
	return unix.Setattrlist(path, &attrs, buf, 0)
}
