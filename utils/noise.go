package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/voxelsplace/voxmesh/voxmesh"
)

// NoiseVolume fills percentage% of a dims-sized volume with random
// materials in [1, materials].
func NoiseVolume(dims [3]int, percentage float64, materials int, r *rand.Rand) (*voxmesh.Volume, error) {
	vol, err := voxmesh.NewVolume(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, err
	}
	percentage = min(max(percentage, 0), 100)
	materials = max(materials, 1)
	total := vol.Len()
	want := min(int(float64(total)*(percentage/100.0)+0.5), total)

	// partial Fisher-Yates over linear indices
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < want; i++ {
		j := i + r.Intn(total-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	yz := dims[1] * dims[2]
	for _, i := range idx[:want] {
		vol.Set(i/yz, i%yz/dims[2], i%dims[2], voxmesh.Material(1+r.Intn(materials)))
	}
	return vol, nil
}

// RunGenerateNoise writes amount volumes named 0.voxv..(amount-1).voxv
// into outDir. seed makes the output reproducible.
func RunGenerateNoise(dims [3]int, percentage float64, materials, amount int, seed int64, outDir string) error {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	const weyl = uint64(0x9e3779b97f4a7c15)
	for i := 0; i < amount; i++ {
		s := uint64(seed) ^ (uint64(i)+1)*weyl
		r := rand.New(rand.NewSource(int64(s & 0x7fffffffffffffff)))
		vol, err := NoiseVolume(dims, percentage, materials, r)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, fmt.Sprintf("%d.voxv", i))
		if err := voxmesh.SaveVolume(vol, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
	return nil
}
