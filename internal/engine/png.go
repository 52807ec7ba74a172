package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"

	"github.com/gabriel-vasile/mimetype"

	"shrink-go/internal/hash"
)

func init() {
	Register("png", func() Engine { return &pngEngine{} })
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Animation chunks describe frames the decoder never sees. A re-encode would
// keep only the default image, so such files are left alone.
var pngAnimationChunks = map[string]bool{
	"acTL": true,
	"fcTL": true,
	"fdAT": true,
}

// Ancillary chunks whose payload is interpreted through the colour type or
// the palette. They are only carried over when the re-encode keeps both.
var pngColourChunks = map[string]bool{
	"bKGD": true,
	"sBIT": true,
	"hIST": true,
}

type pngChunk struct {
	kind string
	data []byte
	raw  []byte // length, type, data and CRC exactly as read
}

func (c pngChunk) critical() bool {
	return c.kind[0] >= 'A' && c.kind[0] <= 'Z'
}

// pngCarried holds the ancillary chunks of a file by position: before PLTE,
// between PLTE and the first IDAT, and after the last IDAT.
type pngCarried struct {
	head, middle, tail []pngChunk
	colour             bool
}

type pngEngine struct{}

func (e *pngEngine) Name() string { return "png" }

func (e *pngEngine) Extensions() []string { return []string{".png"} }

func (e *pngEngine) Supports(mime *mimetype.MIME, header []byte) bool {
	return mime.Is("image/png")
}

func (e *pngEngine) Optimize(s Stream) (bool, error) {
	data, err := readAll(s)
	if err != nil {
		return false, err
	}

	chunks, err := pngChunks(data)
	if err != nil {
		return false, err
	}
	carried, ok := pngCollect(chunks)
	if !ok {
		return false, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("%w: png decode: %v", ErrTransform, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return false, fmt.Errorf("%w: png encode: %v", ErrTransform, err)
	}
	encoded, err := pngChunks(buf.Bytes())
	if err != nil {
		return false, err
	}

	if pngFind(chunks, "PLTE") != nil && pngFind(encoded, "PLTE") == nil {
		// A suggested palette on a truecolour image is not reproduced
		return false, nil
	}
	if carried.colour && !pngSameColour(chunks, encoded) {
		return false, nil
	}

	out, err := pngSplice(encoded, carried)
	if err != nil {
		return false, err
	}
	if len(out) >= len(data) {
		return false, nil
	}

	reencoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return false, fmt.Errorf("%w: png verify: %v", ErrTransform, err)
	}
	if pixelDigest(img) != pixelDigest(reencoded) {
		return false, fmt.Errorf("%w: png verify: pixel mismatch", ErrTransform)
	}

	return replaceIfSmaller(s, out, len(data))
}

// pngChunks splits data into chunks up to and including IEND. Anything after
// IEND is ignored, as decoders do.
func pngChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("%w: png: bad signature", ErrTransform)
	}
	var chunks []pngChunk
	rest := data[len(pngSignature):]
	for len(rest) >= 12 {
		length := binary.BigEndian.Uint32(rest[:4])
		// length + type + data + crc
		next := uint64(length) + 12
		if next > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: png: truncated %q chunk", ErrTransform, rest[4:8])
		}
		c := pngChunk{
			kind: string(rest[4:8]),
			data: rest[8 : 8+length],
			raw:  rest[:next],
		}
		chunks = append(chunks, c)
		if c.kind == "IEND" {
			return chunks, nil
		}
		rest = rest[next:]
	}
	return nil, fmt.Errorf("%w: png: missing IEND", ErrTransform)
}

// pngCollect sorts the ancillary chunks of the original by position. It
// reports false when the file holds something a re-encode cannot keep.
func pngCollect(chunks []pngChunk) (pngCarried, bool) {
	var carried pngCarried
	var seenPLTE, seenIDAT bool
	for _, c := range chunks {
		switch c.kind {
		case "IHDR", "IEND", "tRNS":
			continue
		case "PLTE":
			seenPLTE = true
			continue
		case "IDAT":
			seenIDAT = true
			continue
		}
		if c.critical() || pngAnimationChunks[c.kind] {
			return pngCarried{}, false
		}
		if pngColourChunks[c.kind] {
			carried.colour = true
		}
		switch {
		case seenIDAT:
			carried.tail = append(carried.tail, c)
		case seenPLTE:
			carried.middle = append(carried.middle, c)
		default:
			carried.head = append(carried.head, c)
		}
	}
	return carried, true
}

// pngSplice rebuilds the encoder output with the carried chunks back in
// their original positions.
func pngSplice(encoded []pngChunk, carried pngCarried) ([]byte, error) {
	var ihdr, plte, trns, iend *pngChunk
	var idats []pngChunk
	for i := range encoded {
		c := &encoded[i]
		switch c.kind {
		case "IHDR":
			ihdr = c
		case "PLTE":
			plte = c
		case "tRNS":
			trns = c
		case "IDAT":
			idats = append(idats, *c)
		case "IEND":
			iend = c
		default:
			return nil, fmt.Errorf("%w: png: unexpected %q chunk from encoder", ErrTransform, c.kind)
		}
	}
	if ihdr == nil || iend == nil || len(idats) == 0 {
		return nil, fmt.Errorf("%w: png: incomplete encoder output", ErrTransform)
	}

	var out bytes.Buffer
	out.Write(pngSignature)
	out.Write(ihdr.raw)
	pngWrite(&out, carried.head)
	if plte != nil {
		out.Write(plte.raw)
	}
	if trns != nil {
		out.Write(trns.raw)
	}
	pngWrite(&out, carried.middle)
	pngWrite(&out, idats)
	pngWrite(&out, carried.tail)
	out.Write(iend.raw)
	return out.Bytes(), nil
}

func pngWrite(out *bytes.Buffer, chunks []pngChunk) {
	for _, c := range chunks {
		out.Write(c.raw)
	}
}

func pngFind(chunks []pngChunk, kind string) *pngChunk {
	for i := range chunks {
		if chunks[i].kind == kind {
			return &chunks[i]
		}
	}
	return nil
}

// pngSameColour reports whether the header and palette survived the
// re-encode unchanged.
func pngSameColour(original, encoded []pngChunk) bool {
	for _, kind := range []string{"IHDR", "PLTE"} {
		a, b := pngFind(original, kind), pngFind(encoded, kind)
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && !bytes.Equal(a.data, b.data) {
			return false
		}
	}
	return true
}

// pixelDigest hashes the 16-bit non-premultiplied colour of every pixel so
// that two images compare equal regardless of their in-memory model.
func pixelDigest(img image.Image) hash.Digest {
	w := hash.NewWriter()
	b := img.Bounds()
	row := make([]byte, 0, b.Dx()*8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			row = binary.BigEndian.AppendUint16(row, uint16(r))
			row = binary.BigEndian.AppendUint16(row, uint16(g))
			row = binary.BigEndian.AppendUint16(row, uint16(bl))
			row = binary.BigEndian.AppendUint16(row, uint16(a))
		}
		w.Write(row)
	}
	return w.Digest()
}
