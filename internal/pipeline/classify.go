package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/xattr"

	"shrink-go/internal/engine"
)

// Category is the failure class written to the failure log.
type Category string

const (
	TransformError  Category = "TransformError"
	PermissionError Category = "PermissionError"
	IOError         Category = "IOError"
	FatalError      Category = "FatalError"
)

// Recoverable failures skip one file. Anything else aborts the run.
func (c Category) Recoverable() bool {
	return c != FatalError
}

// Classify maps an error raised while processing a file to its category.
func Classify(err error) Category {
	var (
		pathErr    *fs.PathError
		linkErr    *os.LinkError
		syscallErr *os.SyscallError
		xattrErr   *xattr.Error
	)

	switch {
	case errors.Is(err, engine.ErrTransform):
		return TransformError
	case errors.Is(err, fs.ErrPermission):
		return PermissionError
	case errors.As(err, &pathErr),
		errors.As(err, &linkErr),
		errors.As(err, &syscallErr),
		errors.As(err, &xattrErr),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, fs.ErrNotExist):
		return IOError
	default:
		return FatalError
	}
}

// FileError ties a failure to the file being processed.
type FileError struct {
	Category Category
	Path     string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v (file: %s)", e.Category, e.Err, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
