package voxmesh

import (
	"fmt"
	"io"
)

// maxWidth is the widest material a payload can carry.
const maxWidth = 32

func checkWidth(bpp uint8) error {
	if bpp < 1 || bpp > maxWidth {
		return fmt.Errorf("%w: bits per value %d", ErrFormat, bpp)
	}
	return nil
}

// packedLen is the byte length of count values at bpp bits, padded to a
// whole byte.
func packedLen(count int, bpp uint8) int {
	return (count*int(bpp) + 7) / 8
}

// valueWriter packs materials LSB first at a fixed width.
type valueWriter struct {
	buf   []byte
	acc   uint64
	n     uint
	width uint
	mask  uint64
}

func newValueWriter(bpp uint8, count int) *valueWriter {
	return &valueWriter{
		buf:   make([]byte, 0, packedLen(count, bpp)),
		width: uint(bpp),
		mask:  1<<bpp - 1,
	}
}

func (w *valueWriter) writeValue(m Material) {
	w.acc |= (uint64(m) & w.mask) << w.n
	w.n += w.width
	for ; w.n >= 8; w.n -= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
	}
}

// finish flushes the partial byte and returns the packed values.
func (w *valueWriter) finish() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc, w.n = 0, 0
	}
	return w.buf
}

type valueReader struct {
	data  []byte
	pos   int
	acc   uint64
	n     uint
	width uint
	mask  uint64
}

func newValueReader(data []byte, bpp uint8) *valueReader {
	return &valueReader{data: data, width: uint(bpp), mask: 1<<bpp - 1}
}

func (r *valueReader) readValue() (Material, error) {
	for r.n < r.width {
		if r.pos == len(r.data) {
			return Empty, io.ErrUnexpectedEOF
		}
		r.acc |= uint64(r.data[r.pos]) << r.n
		r.pos++
		r.n += 8
	}
	m := Material(r.acc & r.mask)
	r.acc >>= r.width
	r.n -= r.width
	return m, nil
}
