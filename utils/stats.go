package utils

import (
	"fmt"
	"io"

	"github.com/voxelsplace/voxmesh/palette"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

// Stats compares the naive and greedy meshers on one volume.
type Stats struct {
	Dims           [3]int
	Occupied       int
	Materials      []voxmesh.Material
	NaiveTriangles int
	GreedyQuads    int
	GreedyVertices int
}

func (s Stats) GreedyTriangles() int { return 2 * s.GreedyQuads }

// Reduction is greedy triangles over naive triangles (0 for empty volumes).
func (s Stats) Reduction() float64 {
	if s.NaiveTriangles == 0 {
		return 0
	}
	return float64(s.GreedyTriangles()) / float64(s.NaiveTriangles)
}

func ComputeStats(vol *voxmesh.Volume) Stats {
	greedy := voxmesh.MeshGreedy(vol)
	return Stats{
		Dims:           vol.Dims(),
		Occupied:       vol.Occupied(),
		Materials:      vol.Materials(),
		NaiveTriangles: 12 * vol.Occupied(),
		GreedyQuads:    greedy.TriangleCount() / 2,
		GreedyVertices: greedy.VertexCount(),
	}
}

// RunStats prints mesher statistics and the palette for a .voxv file.
func RunStats(w io.Writer, inPath string, opts palette.Options) error {
	vol, err := voxmesh.LoadVolume(inPath)
	if err != nil {
		return err
	}
	s := ComputeStats(vol)
	fmt.Fprintf(w, "dims:      %dx%dx%d\n", s.Dims[0], s.Dims[1], s.Dims[2])
	fmt.Fprintf(w, "voxels:    %d\n", s.Occupied)
	fmt.Fprintf(w, "naive:     %d triangles\n", s.NaiveTriangles)
	fmt.Fprintf(w, "greedy:    %d quads, %d triangles, %d vertices (%.1f%% of naive)\n",
		s.GreedyQuads, s.GreedyTriangles(), s.GreedyVertices, 100*s.Reduction())
	colors := palette.Assign(s.Materials, opts)
	for _, m := range s.Materials {
		fmt.Fprintf(w, "material %d: %s\n", m, colors[m].Hex())
	}
	return nil
}
