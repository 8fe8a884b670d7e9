package voxmesh

import "slices"

// maxMortonDim bounds each axis so three interleaved 21-bit coordinates
// fit a uint64 key.
const maxMortonDim = 1 << 21

// spreadSteps moves each of the low 21 bits of a coordinate two places
// apart. Running them backwards with the previous mask undoes it.
var spreadSteps = [...]struct {
	shift uint
	mask  uint64
}{
	{32, 0x001f00000000ffff},
	{16, 0x001f0000ff0000ff},
	{8, 0x100f00f00f00f00f},
	{4, 0x10c30c30c30c30c3},
	{2, 0x1249249249249249},
}

func spread(c uint64) uint64 {
	c &= maxMortonDim - 1
	for _, s := range spreadSteps {
		c = (c | c<<s.shift) & s.mask
	}
	return c
}

func compact(k uint64) uint64 {
	k &= spreadSteps[len(spreadSteps)-1].mask
	for i := len(spreadSteps) - 1; i >= 0; i-- {
		mask := uint64(maxMortonDim - 1)
		if i > 0 {
			mask = spreadSteps[i-1].mask
		}
		k = (k ^ k>>spreadSteps[i].shift) & mask
	}
	return k
}

func mortonKey(x, y, z int) uint64 {
	return spread(uint64(x)) | spread(uint64(y))<<1 | spread(uint64(z))<<2
}

func mortonCell(k uint64) (x, y, z int) {
	return int(compact(k)), int(compact(k >> 1)), int(compact(k >> 2))
}

// zOrder returns the Morton key of every cell of a dims-sized grid in
// ascending order. Keys falling outside a non-cubic grid never appear.
func zOrder(dims [3]int) []uint64 {
	keys := make([]uint64, 0, dims[0]*dims[1]*dims[2])
	for x := range dims[0] {
		for y := range dims[1] {
			for z := range dims[2] {
				keys = append(keys, mortonKey(x, y, z))
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// walkZOrder calls visit with the linear index of each cell of vol in
// Morton order, stopping at the first error.
func walkZOrder(vol *Volume, visit func(lin int) error) error {
	for _, k := range zOrder(vol.dims) {
		x, y, z := mortonCell(k)
		if err := visit(vol.index(x, y, z)); err != nil {
			return err
		}
	}
	return nil
}
