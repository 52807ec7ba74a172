// Package protect holds the set of directories that are never scanned.
//
// The set is built once at startup, from the platform's well-known system
// locations plus any user-configured additions, and then passed by value to
// the scanner. A directory is protected when it, or any of its ancestors,
// equals one of the roots (compared case-insensitively).
package protect

import (
	"path/filepath"
	"strings"
)

// Roots is an immutable set of absolute directory paths.
type Roots struct {
	paths []string
}

// New returns a set containing the cleaned, absolute form of every non-empty path.
func New(paths ...string) Roots {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		if containsFold(cleaned, abs) {
			continue
		}
		cleaned = append(cleaned, abs)
	}
	return Roots{paths: cleaned}
}

// Default returns the platform's protected locations plus extra.
func Default(extra ...string) Roots {
	return New(append(platformRoots(), extra...)...)
}

// Paths returns a copy of the roots.
func (r Roots) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

func (r Roots) Len() int {
	return len(r.paths)
}

// Covers reports whether path or one of its ancestors is a protected root.
// Ancestors are visited one directory at a time, so "/opt2" is not covered by "/opt".
func (r Roots) Covers(path string) bool {
	if len(r.paths) == 0 {
		return false
	}
	current := filepath.Clean(path)
	for {
		if containsFold(r.paths, current) {
			return true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return false
		}
		current = parent
	}
}

func containsFold(list []string, path string) bool {
	for _, p := range list {
		if strings.EqualFold(p, path) {
			return true
		}
	}
	return false
}
