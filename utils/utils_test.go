package utils

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/voxmesh/api"
	"github.com/voxelsplace/voxmesh/palette"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

func TestNoiseVolumeFill(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	tests := []struct {
		perc float64
		want int
	}{
		{0, 0},
		{25, 30},
		{100, 120},
		{250, 120},
		{-5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.perc), func(t *testing.T) {
			vol, err := NoiseVolume([3]int{4, 5, 6}, tt.perc, 3, r)
			require.NoError(t, err)
			require.Equal(t, tt.want, vol.Occupied())
			for _, m := range vol.Materials() {
				require.LessOrEqual(t, m, voxmesh.Material(3))
			}
		})
	}
	_, err := NoiseVolume([3]int{0, 1, 1}, 50, 3, r)
	require.ErrorIs(t, err, voxmesh.ErrShape)
}

func TestGenerateNoiseIsReproducible(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, RunGenerateNoise([3]int{5, 5, 5}, 40, 8, 3, 99, a))
	require.NoError(t, RunGenerateNoise([3]int{5, 5, 5}, 40, 8, 3, 99, b))
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("%d.voxv", i)
		x, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		y, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
}

func TestPackUnpackFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, RunGenerateNoise([3]int{6, 3, 4}, 30, 5, 4, 7, src))
	inputs, err := filepath.Glob(filepath.Join(src, "*.voxv"))
	require.NoError(t, err)
	require.Len(t, inputs, 4)

	packPath := filepath.Join(t.TempDir(), "all.voxpack")
	require.NoError(t, CreatePack(inputs, packPath, voxmesh.PackCompZstd))

	out := t.TempDir()
	require.NoError(t, UnpackToDir(packPath, out))
	for _, in := range inputs {
		want, err := os.ReadFile(in)
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(out, filepath.Base(in)))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	glb := filepath.Join(t.TempDir(), "all.glb")
	require.NoError(t, RunVOXPACK2GLB(context.Background(), packPath, glb, api.DefaultExportOptions()))
	fi, err := os.Stat(glb)
	require.NoError(t, err)
	require.Positive(t, fi.Size())
}

func TestCreatePackRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, CreatePack(nil, filepath.Join(dir, "x.voxpack"), voxmesh.PackCompNone))

	junk := filepath.Join(dir, "junk.voxv")
	require.NoError(t, os.WriteFile(junk, []byte("junk"), 0o644))
	err := CreatePack([]string{junk}, filepath.Join(dir, "x.voxpack"), voxmesh.PackCompNone)
	require.ErrorIs(t, err, voxmesh.ErrFormat)
}

func TestCreatePackRejectsDuplicateBaseNames(t *testing.T) {
	root := t.TempDir()
	var inputs []string
	for _, sub := range []string{"a", "b"} {
		dir := filepath.Join(root, sub)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		vol, err := voxmesh.NewVolume(1, 1, 1)
		require.NoError(t, err)
		path := filepath.Join(dir, "x.voxv")
		require.NoError(t, voxmesh.SaveVolume(vol, path))
		inputs = append(inputs, path)
	}

	packPath := filepath.Join(root, "x.voxpack")
	err := CreatePack(inputs, packPath, voxmesh.PackCompNone)
	require.ErrorIs(t, err, voxmesh.ErrDuplicateEntry)
	_, err = os.Stat(packPath)
	require.True(t, os.IsNotExist(err))
}

func TestRunVOXV2GLB(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "block.voxv")
	vol, err := voxmesh.NewVolume(2, 2, 2)
	require.NoError(t, err)
	vol.Set(0, 0, 0, 1)
	vol.Set(1, 1, 1, 2)
	require.NoError(t, voxmesh.SaveVolume(vol, in))

	for _, mode := range []api.Mode{api.ModeGreedy, api.ModeNaive} {
		out := filepath.Join(dir, string(mode)+".glb")
		opts := api.DefaultExportOptions()
		opts.Mode = mode
		require.NoError(t, RunVOXV2GLB(in, out, opts))
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(b, []byte("glTF")))
	}
	require.Error(t, RunVOXV2GLB(filepath.Join(dir, "missing.voxv"), filepath.Join(dir, "x.glb"), api.DefaultExportOptions()))
}

func TestComputeStats(t *testing.T) {
	vol, err := voxmesh.NewVolume(4, 4, 4)
	require.NoError(t, err)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				vol.Set(x, y, z, 6)
			}
		}
	}
	s := ComputeStats(vol)
	require.Equal(t, 64, s.Occupied)
	require.Equal(t, 768, s.NaiveTriangles)
	require.Equal(t, 6, s.GreedyQuads)
	require.Equal(t, 12, s.GreedyTriangles())
	require.Equal(t, 24, s.GreedyVertices)
	require.InDelta(t, 12.0/768, s.Reduction(), 1e-9)

	path := filepath.Join(t.TempDir(), "cube.voxv")
	require.NoError(t, voxmesh.SaveVolume(vol, path))
	var buf bytes.Buffer
	require.NoError(t, RunStats(&buf, path, palette.DefaultOptions()))
	require.Contains(t, buf.String(), "greedy:    6 quads, 12 triangles, 24 vertices")
	require.Contains(t, buf.String(), "material 6: #")
}
