//go:build windows

package protect

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func platformRoots() []string {
	folders := []*windows.KNOWNFOLDERID{
		windows.FOLDERID_ProgramData,
		windows.FOLDERID_Favorites,
		windows.FOLDERID_ProgramFiles,
		windows.FOLDERID_ProgramFilesX86,
		windows.FOLDERID_Windows,
	}

	var roots []string
	for _, id := range folders {
		if path, err := windows.KnownFolderPath(id, windows.KF_FLAG_DEFAULT); err == nil {
			roots = append(roots, path)
		}
	}

	// %LOCALAPPDATA% is ...\AppData\Local; protect the whole AppData tree
	if local, err := windows.KnownFolderPath(windows.FOLDERID_LocalAppData, windows.KF_FLAG_DEFAULT); err == nil {
		roots = append(roots, filepath.Dir(local))
	}
	return roots
}
