package voxmesh

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"slices"
)

const (
	voxvMagic   = "VOXV"
	voxvVersion = 1
	headerSize  = 4 + 1 + 1 + 1 + 3*4 + 4

	// MaxCells bounds decoded volumes. At 32 bits per value the raw
	// payload stays under 64 MiB.
	MaxCells = 1 << 24
)

const (
	encDense  = 0
	encSparse = 1 // occupancy bitmap + nonzero values
	encZlib   = 0x80
)

var ErrFormat = errors.New("voxmesh: not a .voxv volume")

// Header is the fixed part of a .voxv file.
type Header struct {
	Ver  uint8
	Enc  uint8
	BPP  uint8
	Dims [3]uint32
	PLen uint32
}

// Cells is the number of voxels the header describes.
func (h Header) Cells() int {
	return int(h.Dims[0]) * int(h.Dims[1]) * int(h.Dims[2])
}

type encoded struct {
	encoding uint8
	payload  []byte
}

// bitsFor is the smallest width able to hold every material of vol.
func bitsFor(vol *Volume) uint8 {
	top := slices.Max(vol.data)
	return uint8(max(bits.Len32(uint32(top)), 1))
}

// candidates streams vol once in Morton order and builds the dense and
// sparse payloads side by side.
func candidates(vol *Volume, bpp uint8) []encoded {
	n := vol.Len()
	dense := newValueWriter(bpp, n)
	sparse := newValueWriter(bpp, 0)
	bitmap := make([]byte, (n+7)/8)
	i := 0
	_ = walkZOrder(vol, func(lin int) error {
		m := vol.data[lin]
		dense.writeValue(m)
		if m != Empty {
			bitmap[i>>3] |= 1 << (i & 7)
			sparse.writeValue(m)
		}
		i++
		return nil
	})
	return []encoded{
		{encoding: encDense, payload: dense.finish()},
		{encoding: encSparse, payload: append(bitmap, sparse.finish()...)},
	}
}

// smallest keeps the shortest payload among the raw candidates and their
// deflated forms. Ties go to the earlier one.
func smallest(raw []encoded) encoded {
	all := slices.Clone(raw)
	for _, c := range raw {
		all = append(all, encoded{encoding: c.encoding | encZlib, payload: deflate(c.payload)})
	}
	return slices.MinFunc(all, func(a, b encoded) int {
		return len(a.payload) - len(b.payload)
	})
}

func deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw, _ := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	_, _ = zw.Write(b)
	_ = zw.Close()
	return buf.Bytes()
}

// inflate decompresses b, failing once the output grows past limit bytes.
func inflate(b []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w: inflated payload exceeds %d bytes", ErrFormat, limit)
	}
	return out, nil
}

// EncodeVolume returns vol as a complete .voxv file.
func EncodeVolume(vol *Volume) []byte {
	mustValid(vol)
	bpp := bitsFor(vol)
	enc := smallest(candidates(vol, bpp))

	var buf bytes.Buffer
	buf.Grow(headerSize + len(enc.payload))
	buf.WriteString(voxvMagic)
	buf.Write([]byte{voxvVersion, enc.encoding, bpp})
	for _, d := range vol.dims {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(d))
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(enc.payload)))
	buf.Write(enc.payload)
	return buf.Bytes()
}

// ParseHeader validates the fixed header and returns it with the payload.
func ParseHeader(data []byte) (Header, []byte, error) {
	var hdr Header
	if len(data) < headerSize || string(data[:4]) != voxvMagic {
		return hdr, nil, ErrFormat
	}
	if err := binary.Read(bytes.NewReader(data[4:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if hdr.Ver != voxvVersion {
		return hdr, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr.Ver)
	}
	if err := checkWidth(hdr.BPP); err != nil {
		return hdr, nil, err
	}
	cells := uint64(1)
	for _, d := range hdr.Dims {
		if d < 1 || d > maxMortonDim {
			return hdr, nil, fmt.Errorf("%w: dims %v", ErrShape, hdr.Dims)
		}
		cells *= uint64(d)
	}
	if cells > MaxCells {
		return hdr, nil, fmt.Errorf("%w: %d cells exceeds %d", ErrShape, cells, MaxCells)
	}
	if uint64(len(data)-headerSize) != uint64(hdr.PLen) {
		return hdr, nil, fmt.Errorf("%w: payload length %d, header says %d", ErrFormat, len(data)-headerSize, hdr.PLen)
	}
	return hdr, data[headerSize:], nil
}

// layout is the payload shape a header implies.
type layout struct {
	cells int
	bpp   uint8
}

func (l layout) bitmapLen() int { return (l.cells + 7) / 8 }

// limit is the largest raw payload the encoding can legitimately have.
func (l layout) limit(enc uint8) int {
	if enc == encSparse {
		return l.bitmapLen() + packedLen(l.cells, l.bpp)
	}
	return packedLen(l.cells, l.bpp)
}

// check verifies the raw payload length against the header before any
// voxel storage is allocated.
func (l layout) check(enc uint8, payload []byte) error {
	if enc == encDense {
		if want := packedLen(l.cells, l.bpp); len(payload) != want {
			return fmt.Errorf("%w: dense payload %d bytes, want %d", ErrFormat, len(payload), want)
		}
		return nil
	}
	size := l.bitmapLen()
	if len(payload) < size {
		return fmt.Errorf("%w: sparse payload too short: %d < %d", ErrFormat, len(payload), size)
	}
	bitmap := payload[:size]
	if tail := l.cells & 7; tail != 0 && bitmap[size-1]>>tail != 0 {
		return fmt.Errorf("%w: occupancy bits set past the last cell", ErrFormat)
	}
	occupied := 0
	for _, b := range bitmap {
		occupied += bits.OnesCount8(b)
	}
	if want := size + packedLen(occupied, l.bpp); len(payload) != want {
		return fmt.Errorf("%w: sparse payload %d bytes, want %d for %d voxels", ErrFormat, len(payload), want, occupied)
	}
	return nil
}

// DecodeVolume parses a .voxv file from memory.
func DecodeVolume(data []byte) (*Volume, error) {
	hdr, payload, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	enc := hdr.Enc &^ encZlib
	if enc != encDense && enc != encSparse {
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrFormat, hdr.Enc)
	}
	lay := layout{cells: hdr.Cells(), bpp: hdr.BPP}
	if hdr.Enc&encZlib != 0 {
		payload, err = inflate(payload, lay.limit(enc))
		if err != nil {
			return nil, fmt.Errorf("inflate payload: %w", err)
		}
	}
	if err := lay.check(enc, payload); err != nil {
		return nil, err
	}

	vol, err := NewVolume(int(hdr.Dims[0]), int(hdr.Dims[1]), int(hdr.Dims[2]))
	if err != nil {
		return nil, err
	}
	if enc == encDense {
		r := newValueReader(payload, hdr.BPP)
		err = walkZOrder(vol, func(lin int) error {
			m, err := r.readValue()
			vol.data[lin] = m
			return err
		})
	} else {
		bitmap := payload[:lay.bitmapLen()]
		r := newValueReader(payload[len(bitmap):], hdr.BPP)
		i := 0
		err = walkZOrder(vol, func(lin int) error {
			set := bitmap[i>>3]>>(i&7)&1 != 0
			i++
			if !set {
				return nil
			}
			m, err := r.readValue()
			vol.data[lin] = m
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return vol, nil
}

func SaveVolume(vol *Volume, filename string) error {
	return os.WriteFile(filename, EncodeVolume(vol), 0o644)
}

func LoadVolume(filename string) (*Volume, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	vol, err := DecodeVolume(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return vol, nil
}
