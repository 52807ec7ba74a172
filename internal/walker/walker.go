// Package walker scans a directory tree breadth first and queues the files a
// transform can handle, skipping protected and excluded folders.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"shrink-go/internal/protect"
	"shrink-go/internal/queue"
)

// Candidates decides which files a transform can handle.
type Candidates interface {
	IsCandidate(path string) bool
}

// Filter decides which files are queued and which directories are entered.
// Exclusion globs are matched against the base name and, during a walk,
// against the slash-separated path relative to the scan root.
type Filter struct {
	candidates Candidates
	protected  protect.Roots
	exclude    []glob.Glob
	root       string
}

func NewFilter(candidates Candidates, protected protect.Roots, exclude []glob.Glob) *Filter {
	return &Filter{
		candidates: candidates,
		protected:  protected,
		exclude:    exclude,
	}
}

func (f *Filter) FileAccepted(path string) bool {
	return !f.excluded(path) && f.candidates.IsCandidate(path)
}

func (f *Filter) FolderAccepted(path string) bool {
	return !f.protected.Covers(path) && !f.excluded(path)
}

// within returns a copy of f that also matches paths relative to root.
func (f *Filter) within(root string) *Filter {
	scoped := *f
	scoped.root = root
	return &scoped
}

func (f *Filter) excluded(path string) bool {
	base := filepath.Base(path)
	rel := f.relative(path)
	for _, g := range f.exclude {
		if g.Match(base) || (rel != "" && g.Match(rel)) {
			return true
		}
	}
	return false
}

func (f *Filter) relative(path string) string {
	if f.root == "" {
		return ""
	}
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

type WalkResult struct {
	Root   string
	Queue  *queue.Queue
	Dirs   int
	Errors []error
}

// Walk scans root breadth first and queues every accepted file. A root that
// is missing, not a directory, or rejected by the filter yields an empty
// queue. A directory that cannot be listed contributes nothing and the scan
// moves on. Cancelling ctx stops the scan between directories.
func Walk(ctx context.Context, root string, filter *Filter) *WalkResult {
	_, span := otel.Tracer("shrink-go/walker").Start(ctx, "walk")
	defer span.End()

	result := &WalkResult{
		Root:   root,
		Queue:  queue.New(),
		Errors: make([]error, 0),
	}

	abs, err := normalize(root)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}
	result.Root = abs
	filter = filter.within(abs)
	span.SetAttributes(attribute.String("root", abs))

	info, err := os.Stat(abs)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}
	if !info.IsDir() {
		result.Errors = append(result.Errors, fmt.Errorf("%s is not a directory", abs))
		return result
	}
	if !filter.FolderAccepted(abs) {
		return result
	}

	pending := []string{abs}
	for len(pending) > 0 {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err())
			break
		}

		dir := pending[0]
		pending[0] = ""
		pending = pending[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Dirs++

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			switch t := entry.Type(); {
			case t.IsDir():
				if filter.FolderAccepted(path) {
					pending = append(pending, path)
				}
			case t.IsRegular():
				if filter.FileAccepted(path) {
					result.Queue.Push(path)
				}
			}
		}
	}

	span.SetAttributes(
		attribute.Int("dirs", result.Dirs),
		attribute.Int("files", result.Queue.Len()),
		attribute.Int("errors", len(result.Errors)),
	)
	return result
}

// normalize makes root absolute and resolves symlinks in it.
func normalize(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
