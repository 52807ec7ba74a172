//go:build unix

package fileinfo

import (
	"io/fs"
	"syscall"
)

// OwnerOf returns the numeric owner recorded in info.
func OwnerOf(info fs.FileInfo) Owner {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return NoOwner
	}
	return Owner{UID: int(st.Uid), GID: int(st.Gid)}
}

func linkCount(path string, info fs.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 1
	}
	return uint64(st.Nlink)
}
