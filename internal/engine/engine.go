// Package engine holds the lossless transform backends and the registry that
// selects among them. A backend rewrites a staged stream in place and only
// ever leaves it smaller or untouched.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// ErrTransform marks a failure inside a backend, as opposed to an I/O failure
// on the stream itself.
var ErrTransform = errors.New("transform failed")

// sniffLen matches the default read limit of mimetype.
const sniffLen = 3072

// Stream is the staged content a backend works on. *os.File satisfies it.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

type Engine interface {
	Name() string
	// Extensions lists the lower-case file extensions, with dot, the engine accepts.
	Extensions() []string
	Supports(mime *mimetype.MIME, header []byte) bool
	// Optimize reports true when it rewrote the stream to a strictly smaller size.
	Optimize(s Stream) (bool, error)
}

// Capability is what the scanner and the workers need from a set of engines.
type Capability interface {
	IsCandidate(path string) bool
	Optimize(s Stream) (bool, error)
}

var muEngines sync.Mutex
var engines = make(map[string]func() Engine)

func Register(name string, engine func() Engine) {
	muEngines.Lock()
	defer muEngines.Unlock()

	if _, ok := engines[name]; ok {
		panic(fmt.Sprintf("engine '%s' registered twice", name))
	}
	engines[name] = engine
}

func Names() []string {
	muEngines.Lock()
	defer muEngines.Unlock()

	ret := make([]string, 0, len(engines))
	for name := range engines {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Set is a selection of engines. Dispatch is by sniffed content, the
// extension only decides candidacy.
type Set struct {
	engines    []Engine
	extensions map[string]struct{}
}

// New builds a Set from registered engine names. No names selects every
// registered engine.
func New(names ...string) (*Set, error) {
	if len(names) == 0 {
		names = Names()
	}

	muEngines.Lock()
	defer muEngines.Unlock()

	selected := make([]Engine, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		ctor, ok := engines[name]
		if !ok {
			return nil, fmt.Errorf("engine '%s' does not exist", name)
		}
		selected = append(selected, ctor())
	}
	return NewSet(selected...), nil
}

// NewSet builds a Set from engine values directly.
func NewSet(list ...Engine) *Set {
	set := &Set{
		engines:    list,
		extensions: make(map[string]struct{}),
	}
	for _, e := range list {
		for _, ext := range e.Extensions() {
			set.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
	return set
}

func (s *Set) Names() []string {
	ret := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		ret = append(ret, e.Name())
	}
	return ret
}

func (s *Set) IsCandidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := s.extensions[ext]
	return ok
}

// Optimize sniffs the stream and hands it to the first engine supporting
// the detected content.
func (s *Set) Optimize(stream Stream) (bool, error) {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(stream, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	header = header[:n]
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return false, err
	}

	mime := mimetype.Detect(header)
	for _, e := range s.engines {
		if e.Supports(mime, header) {
			return e.Optimize(stream)
		}
	}
	return false, fmt.Errorf("%w: unsupported content %s", ErrTransform, mime.String())
}

// readAll returns the whole stream content from offset zero.
func readAll(s Stream) ([]byte, error) {
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replaceIfSmaller overwrites the stream with out when out is strictly
// shorter than the current content.
func replaceIfSmaller(s Stream, out []byte, size int) (bool, error) {
	if len(out) >= size {
		return false, nil
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	if _, err := s.Write(out); err != nil {
		return false, err
	}
	if err := s.Truncate(int64(len(out))); err != nil {
		return false, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return true, nil
}
