package voxmesh

import (
	"errors"
	"fmt"
	"slices"
)

// Material is an opaque voxel label. 0 is empty.
type Material uint32

const Empty Material = 0

var (
	ErrRank  = errors.New("voxmesh: volume must have exactly 3 dimensions")
	ErrShape = errors.New("voxmesh: invalid volume shape")
)

// Volume is a dense X*Y*Z grid of materials stored x-major
// (index = (x*Y + y)*Z + z). Reads outside the grid return Empty.
type Volume struct {
	dims [3]int
	data []Material
}

// NewVolume allocates an empty volume.
func NewVolume(x, y, z int) (*Volume, error) {
	if x < 1 || y < 1 || z < 1 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrShape, x, y, z)
	}
	return &Volume{dims: [3]int{x, y, z}, data: make([]Material, x*y*z)}, nil
}

// FromShape wraps a flat x-major buffer. The buffer is copied.
func FromShape(shape []int, data []Material) (*Volume, error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("%w (got %d)", ErrRank, len(shape))
	}
	vol, err := NewVolume(shape[0], shape[1], shape[2])
	if err != nil {
		return nil, err
	}
	if len(data) != len(vol.data) {
		return nil, fmt.Errorf("%w: %d values for %d cells", ErrShape, len(data), len(vol.data))
	}
	copy(vol.data, data)
	return vol, nil
}

// FromNested builds a volume from cells[x][y][z]. Ragged input is rejected.
func FromNested(cells [][][]Material) (*Volume, error) {
	if len(cells) == 0 || len(cells[0]) == 0 || len(cells[0][0]) == 0 {
		return nil, fmt.Errorf("%w: empty nested input", ErrShape)
	}
	vol, err := NewVolume(len(cells), len(cells[0]), len(cells[0][0]))
	if err != nil {
		return nil, err
	}
	for x, plane := range cells {
		if len(plane) != vol.dims[1] {
			return nil, fmt.Errorf("%w: ragged plane at x=%d", ErrShape, x)
		}
		for y, row := range plane {
			if len(row) != vol.dims[2] {
				return nil, fmt.Errorf("%w: ragged row at x=%d y=%d", ErrShape, x, y)
			}
			copy(vol.data[vol.index(x, y, 0):], row)
		}
	}
	return vol, nil
}

func (v *Volume) Dims() [3]int { return v.dims }

// Len is the number of cells.
func (v *Volume) Len() int { return len(v.data) }

func (v *Volume) index(x, y, z int) int { return (x*v.dims[1]+y)*v.dims[2] + z }

func (v *Volume) inside(x, y, z int) bool {
	return x >= 0 && x < v.dims[0] && y >= 0 && y < v.dims[1] && z >= 0 && z < v.dims[2]
}

func (v *Volume) At(x, y, z int) Material {
	if !v.inside(x, y, z) {
		return Empty
	}
	return v.data[v.index(x, y, z)]
}

func (v *Volume) at(p [3]int) Material { return v.At(p[0], p[1], p[2]) }

// Set writes a cell; writes outside the grid are ignored.
func (v *Volume) Set(x, y, z int, m Material) {
	if v.inside(x, y, z) {
		v.data[v.index(x, y, z)] = m
	}
}

// Occupied counts non-empty cells.
func (v *Volume) Occupied() int {
	n := 0
	for _, m := range v.data {
		if m != Empty {
			n++
		}
	}
	return n
}

// Materials returns the distinct non-empty materials in ascending order.
func (v *Volume) Materials() []Material {
	seen := make(map[Material]struct{})
	for _, m := range v.data {
		if m != Empty {
			seen[m] = struct{}{}
		}
	}
	out := make([]Material, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

func (v *Volume) Equal(o *Volume) bool {
	return v.dims == o.dims && slices.Equal(v.data, o.data)
}

func (v *Volume) valid() bool {
	return v != nil && v.dims[0] > 0 && v.dims[1] > 0 && v.dims[2] > 0 &&
		len(v.data) == v.dims[0]*v.dims[1]*v.dims[2]
}

func mustValid(v *Volume) {
	if !v.valid() {
		panic(ErrRank)
	}
}
