//go:build !windows && !darwin

package protect

import (
	"os"
	"path/filepath"
)

func platformRoots() []string {
	roots := []string{
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/lib32",
		"/lib64",
		"/libx32",
		"/opt",
		"/proc",
		"/sbin",
		"/snap",
		"/sys",
		"/usr",
		"/var",
	}

	// Per-user application state (XDG base directories)
	if cache, err := os.UserCacheDir(); err == nil {
		roots = append(roots, cache)
	}
	if conf, err := os.UserConfigDir(); err == nil {
		roots = append(roots, conf)
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".local"))
	}
	return roots
}
