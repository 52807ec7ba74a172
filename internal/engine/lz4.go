package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pierrec/lz4/v4"

	"shrink-go/internal/hash"
)

func init() {
	Register("lz4", func() Engine { return &lz4Engine{} })
}

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

type lz4Engine struct{}

func (e *lz4Engine) Name() string { return "lz4" }

func (e *lz4Engine) Extensions() []string { return []string{".lz4"} }

// Supports checks the frame magic, which not every mimetype release knows.
func (e *lz4Engine) Supports(mime *mimetype.MIME, header []byte) bool {
	return bytes.HasPrefix(header, lz4Magic)
}

func (e *lz4Engine) Optimize(s Stream) (bool, error) {
	data, err := readAll(s)
	if err != nil {
		return false, err
	}

	plainDigest := hash.NewWriter()
	var out bytes.Buffer
	out.Grow(len(data))
	w := lz4.NewWriter(&out)
	if err := w.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
		return false, fmt.Errorf("%w: lz4 options: %v", ErrTransform, err)
	}
	defer func() {
		_ = w.Close()
	}()

	r := lz4.NewReader(bytes.NewReader(data))
	if _, err := io.Copy(io.MultiWriter(w, plainDigest), r); err != nil {
		return false, fmt.Errorf("%w: lz4 inflate: %v", ErrTransform, err)
	}
	if err := w.Close(); err != nil {
		return false, fmt.Errorf("%w: lz4 deflate: %v", ErrTransform, err)
	}
	if out.Len() >= len(data) {
		return false, nil
	}

	d, err := hash.HashReader(lz4.NewReader(bytes.NewReader(out.Bytes())))
	if err != nil {
		return false, fmt.Errorf("%w: lz4 verify: %v", ErrTransform, err)
	}
	if d != plainDigest.Digest() {
		return false, fmt.Errorf("%w: lz4 verify: content mismatch", ErrTransform)
	}

	return replaceIfSmaller(s, out.Bytes(), len(data))
}
