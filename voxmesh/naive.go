package voxmesh

import "github.com/go-gl/mathgl/mgl32"

// cubeFaces indexes the corners of a unit cube, corner i sitting at
// (i/4, i/2%2, i%2).
var cubeFaces = [12][3]uint32{
	{0, 1, 2}, {1, 2, 3},
	{0, 1, 4}, {1, 4, 5},
	{0, 2, 4}, {6, 2, 4},
	{2, 3, 6}, {7, 3, 6},
	{4, 5, 6}, {7, 5, 6},
	{1, 3, 5}, {7, 3, 5},
}

// Cube is the unmerged mesh of a single voxel.
type Cube struct {
	Vertices [8]mgl32.Vec3
	Faces    [12][3]uint32
	Material Material
}

type Cubes []Cube

// MeshEachVoxel emits one unit cube per occupied cell, x-major.
func MeshEachVoxel(vol *Volume) Cubes {
	mustValid(vol)
	var cubes Cubes
	for x := 0; x < vol.dims[0]; x++ {
		for y := 0; y < vol.dims[1]; y++ {
			for z := 0; z < vol.dims[2]; z++ {
				m := vol.At(x, y, z)
				if m == Empty {
					continue
				}
				c := Cube{Faces: cubeFaces, Material: m}
				for i := range c.Vertices {
					c.Vertices[i] = vec([3]int{x + i/4, y + i/2%2, z + i%2})
				}
				cubes = append(cubes, c)
			}
		}
	}
	return cubes
}

// Mesh concatenates the cubes into one Mesh.
func (cs Cubes) Mesh() *Mesh {
	mesh := &Mesh{
		Vertices: make([]mgl32.Vec3, 0, 8*len(cs)),
		Faces:    make([]Face, 0, 12*len(cs)),
	}
	for _, c := range cs {
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, c.Vertices[:]...)
		for _, f := range c.Faces {
			mesh.Faces = append(mesh.Faces, Face{A: base + f[0], B: base + f[1], C: base + f[2], Material: c.Material})
		}
	}
	return mesh
}
