package voxmesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// PackCompression selects the codec applied to the pack content section.
type PackCompression uint8

const (
	PackCompNone PackCompression = 0
	PackCompZlib PackCompression = 1
	PackCompZstd PackCompression = 2
)

const (
	packMagic   = "VOXPACK"
	packVersion = 1
)

var (
	ErrPackFormat     = errors.New("voxmesh: not a .voxpack archive")
	ErrDuplicateEntry = errors.New("voxmesh: duplicate pack entry name")
)

// maxPackContent bounds the decompressed content section of a pack.
var maxPackContent uint64 = 1 << 28

// CheckNames reports the first pair of names that collide once reduced to
// their base name, which is what unpacking writes to disk.
func CheckNames(names []string) error {
	seen := make(map[string]string, len(names))
	for _, n := range names {
		base := filepath.Base(n)
		if prev, ok := seen[base]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateEntry, prev, n)
		}
		seen[base] = n
	}
	return nil
}

func entryNames(entries []PackEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// PackEntry is one named .voxv file inside a pack.
type PackEntry struct {
	Name string
	Data []byte
}

// Pack is an ordered set of named volumes. Entries with identical bytes
// are stored once.
type Pack struct {
	Entries []PackEntry
}

// Add encodes vol and appends it under name.
func (p *Pack) Add(name string, vol *Volume) {
	p.Entries = append(p.Entries, PackEntry{Name: name, Data: EncodeVolume(vol)})
}

// Volume decodes entry i.
func (p *Pack) Volume(i int) (*Volume, error) {
	vol, err := DecodeVolume(p.Entries[i].Data)
	if err != nil {
		return nil, fmt.Errorf("entry %d (%s): %w", i, p.Entries[i].Name, err)
	}
	return vol, nil
}

// dedup builds the blob table and the per-entry blob reference.
func dedup(entries []PackEntry) ([][]byte, []uint32) {
	blobs := make([][]byte, 0, len(entries))
	refs := make([]uint32, len(entries))
	index := make(map[uint64][]int, len(entries))
	for i, e := range entries {
		h := xxhash.Sum64(e.Data)
		found := -1
		for _, idx := range index[h] {
			if bytes.Equal(blobs[idx], e.Data) {
				found = idx
				break
			}
		}
		if found < 0 {
			found = len(blobs)
			blobs = append(blobs, e.Data)
			index[h] = append(index[h], found)
		}
		refs[i] = uint32(found)
	}
	return blobs, refs
}

// Marshal encodes the pack with the given content compression.
func (p *Pack) Marshal(comp PackCompression) ([]byte, error) {
	if err := CheckNames(entryNames(p.Entries)); err != nil {
		return nil, err
	}
	blobs, refs := dedup(p.Entries)

	var content bytes.Buffer
	_ = binary.Write(&content, binary.LittleEndian, uint32(len(blobs)))
	for _, b := range blobs {
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(b)))
		content.Write(b)
	}
	_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Entries)))
	for i, e := range p.Entries {
		if len(e.Name) > 0xFFFF {
			return nil, fmt.Errorf("entry name too long: %.32s...", e.Name)
		}
		_ = binary.Write(&content, binary.LittleEndian, uint16(len(e.Name)))
		content.WriteString(e.Name)
		_ = binary.Write(&content, binary.LittleEndian, refs[i])
	}

	var body []byte
	switch comp {
	case PackCompNone:
		body = content.Bytes()
	case PackCompZlib:
		body = deflate(content.Bytes())
	case PackCompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(content.Bytes(), nil)
		_ = enc.Close()
	default:
		return nil, fmt.Errorf("unsupported compression: %d", comp)
	}

	out := make([]byte, 0, len(packMagic)+2+len(body))
	out = append(out, packMagic...)
	out = append(out, packVersion, byte(comp))
	return append(out, body...), nil
}

// UnmarshalPack parses a .voxpack and reports the compression it used.
func UnmarshalPack(data []byte) (*Pack, PackCompression, error) {
	if len(data) < len(packMagic)+2 || string(data[:len(packMagic)]) != packMagic {
		return nil, 0, ErrPackFormat
	}
	if v := data[len(packMagic)]; v != packVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrPackFormat, v)
	}
	comp := PackCompression(data[len(packMagic)+1])
	body := data[len(packMagic)+2:]

	switch comp {
	case PackCompNone:
	case PackCompZlib:
		b, err := inflate(body, int(maxPackContent))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrPackFormat, err)
		}
		body = b
	case PackCompZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPackContent))
		if err != nil {
			return nil, 0, err
		}
		defer dec.Close()
		b, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrPackFormat, err)
		}
		body = b
	default:
		return nil, 0, fmt.Errorf("%w: unsupported compression %d", ErrPackFormat, comp)
	}

	r := bytes.NewReader(body)
	var nBlobs uint32
	if err := binary.Read(r, binary.LittleEndian, &nBlobs); err != nil {
		return nil, 0, err
	}
	if uint64(nBlobs) > uint64(r.Len()) {
		return nil, 0, fmt.Errorf("%w: %d blobs in %d bytes", ErrPackFormat, nBlobs, r.Len())
	}
	blobs := make([][]byte, nBlobs)
	for i := range blobs {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, 0, err
		}
		if uint64(n) > uint64(r.Len()) {
			return nil, 0, io.ErrUnexpectedEOF
		}
		blobs[i] = make([]byte, n)
		if _, err := io.ReadFull(r, blobs[i]); err != nil {
			return nil, 0, err
		}
	}

	var nEntries uint32
	if err := binary.Read(r, binary.LittleEndian, &nEntries); err != nil {
		return nil, 0, err
	}
	if uint64(nEntries) > uint64(r.Len()) {
		return nil, 0, fmt.Errorf("%w: %d entries in %d bytes", ErrPackFormat, nEntries, r.Len())
	}
	pack := &Pack{Entries: make([]PackEntry, nEntries)}
	for i := range pack.Entries {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, 0, err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, 0, err
		}
		var ref uint32
		if err := binary.Read(r, binary.LittleEndian, &ref); err != nil {
			return nil, 0, err
		}
		if ref >= nBlobs {
			return nil, 0, fmt.Errorf("%w: blob index %d out of range", ErrPackFormat, ref)
		}
		pack.Entries[i] = PackEntry{Name: string(name), Data: blobs[ref]}
	}
	if err := CheckNames(entryNames(pack.Entries)); err != nil {
		return nil, 0, err
	}
	return pack, comp, nil
}
