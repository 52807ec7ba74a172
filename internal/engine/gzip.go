package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"

	"shrink-go/internal/hash"
)

func init() {
	Register("gzip", func() Engine { return &gzipEngine{} })
}

type gzipEngine struct{}

func (e *gzipEngine) Name() string { return "gzip" }

func (e *gzipEngine) Extensions() []string { return []string{".gz", ".tgz", ".svgz"} }

func (e *gzipEngine) Supports(mime *mimetype.MIME, header []byte) bool {
	return mime.Is("application/gzip")
}

// Optimize re-deflates the member stream at best compression into a single
// member carrying the first member's header.
func (e *gzipEngine) Optimize(s Stream) (bool, error) {
	data, err := readAll(s)
	if err != nil {
		return false, err
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("%w: gzip header: %v", ErrTransform, err)
	}
	defer r.Close()
	header := r.Header

	plainDigest := hash.NewWriter()
	var out bytes.Buffer
	out.Grow(len(data))
	w, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
	if err != nil {
		return false, fmt.Errorf("%w: gzip writer: %v", ErrTransform, err)
	}
	w.Header = header

	if _, err := io.Copy(io.MultiWriter(w, plainDigest), r); err != nil {
		return false, fmt.Errorf("%w: gzip inflate: %v", ErrTransform, err)
	}
	if err := w.Close(); err != nil {
		return false, fmt.Errorf("%w: gzip deflate: %v", ErrTransform, err)
	}
	if out.Len() >= len(data) {
		return false, nil
	}

	check, err := gzip.NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		return false, fmt.Errorf("%w: gzip verify: %v", ErrTransform, err)
	}
	defer check.Close()
	d, err := hash.HashReader(check)
	if err != nil {
		return false, fmt.Errorf("%w: gzip verify: %v", ErrTransform, err)
	}
	if d != plainDigest.Digest() {
		return false, fmt.Errorf("%w: gzip verify: content mismatch", ErrTransform)
	}

	return replaceIfSmaller(s, out.Bytes(), len(data))
}
