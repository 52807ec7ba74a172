package hash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// Digest is an xxHash64 sum.
type Digest uint64

func (d Digest) String() string {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(d)
		d >>= 8
	}
	return hex.EncodeToString(buf[:])
}

// HashFile computes the xxHash of a file using streaming for large files
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	d, err := HashReader(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	return d, nil
}

// HashReader consumes r until EOF and returns its digest.
func HashReader(r io.Reader) (Digest, error) {
	h := xxhash.New()
	buf := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return 0, err
	}
	return Digest(h.Sum64()), nil
}

// HashSeeker hashes rs from the start and rewinds it afterwards.
func HashSeeker(rs io.ReadSeeker) (Digest, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	d, err := HashReader(rs)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return d, nil
}

// Sum hashes an in-memory buffer.
func Sum(data []byte) Digest {
	return Digest(xxhash.Sum64(data))
}

// Writer accumulates a digest from successive writes, for content that is
// produced piecewise such as decoded pixel rows.
type Writer struct {
	h *xxhash.Digest
}

func NewWriter() *Writer {
	return &Writer{h: xxhash.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.h.Write(p)
}

func (w *Writer) Digest() Digest {
	return Digest(w.h.Sum64())
}
