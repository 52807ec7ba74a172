//go:build darwin

package protect

import (
	"os"
	"path/filepath"
)

func platformRoots() []string {
	roots := []string{
		"/System",
		"/Library",
		"/Applications",
		"/bin",
		"/sbin",
		"/usr",
		"/private",
		"/opt",
		"/cores",
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Library"))
	}
	return roots
}
