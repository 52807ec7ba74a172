// Package selector resolves the directory a run should process.
package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqweek/dialog"
	"golang.org/x/term"
)

const title = "Select a folder to compress"

// Selector picks the root from, in order: an argument, a native folder
// dialog, or a prompt on an interactive terminal. An empty result means no
// run was requested.
type Selector struct {
	In          io.Reader
	Out         io.Writer
	Browse      func(title string) (string, error)
	Interactive bool
}

func New() *Selector {
	return &Selector{
		In:          os.Stdin,
		Out:         os.Stdout,
		Browse:      browseDialog,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

func (s *Selector) Select(args []string, browse bool) (string, error) {
	var raw string
	switch {
	case len(args) > 0:
		raw = args[0]
	case browse:
		path, err := s.Browse(title)
		if err != nil {
			return "", fmt.Errorf("folder dialog failed: %w", err)
		}
		raw = path
	case s.Interactive:
		path, err := s.prompt()
		if err != nil {
			return "", err
		}
		raw = path
	}

	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	if raw == "" {
		return "", nil
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

func (s *Selector) prompt() (string, error) {
	fmt.Fprint(s.Out, "Folder to compress: ")
	line, err := bufio.NewReader(s.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read folder: %w", err)
	}
	return line, nil
}

// browseDialog treats a cancelled dialog as an empty selection.
func browseDialog(title string) (string, error) {
	path, err := dialog.Directory().Title(title).Browse()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	return path, err
}
