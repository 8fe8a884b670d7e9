package voxmesh

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Face is one triangle plus the material it was cut from.
type Face struct {
	A, B, C  uint32
	Material Material
}

// Mesh is an unindexed-per-quad triangle soup: every quad owns four
// fresh vertices.
type Mesh struct {
	Vertices []mgl32.Vec3
	Faces    []Face
}

func (m *Mesh) VertexCount() int   { return len(m.Vertices) }
func (m *Mesh) TriangleCount() int { return len(m.Faces) }
func (m *Mesh) IsEmpty() bool      { return len(m.Faces) == 0 }

// Indices flattens faces into a triangle index list.
func (m *Mesh) Indices() []uint32 {
	out := make([]uint32, 0, 3*len(m.Faces))
	for _, f := range m.Faces {
		out = append(out, f.A, f.B, f.C)
	}
	return out
}

// Materials returns the distinct face materials in ascending order.
func (m *Mesh) Materials() []Material {
	out := make([]Material, 0, 8)
	for _, f := range m.Faces {
		out = append(out, f.Material)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Append concatenates o onto m, rebasing o's indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, f := range o.Faces {
		m.Faces = append(m.Faces, Face{A: f.A + base, B: f.B + base, C: f.C + base, Material: f.Material})
	}
}

func vec(p [3]int) mgl32.Vec3 {
	return mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
}

// addQuad emits the rectangle of size width (along u) by height (along v)
// anchored at start. Minus cells swap the extents so the winding faces -d.
func (m *Mesh) addQuad(start [3]int, width, height int, ax axisPlan, c maskCell) {
	var du, dv [3]int
	if c.orient == Plus {
		du[ax.u] = width
		dv[ax.v] = height
	} else {
		du[ax.v] = height
		dv[ax.u] = width
	}

	var corners [4][3]int
	for k := range 3 {
		corners[0][k] = start[k]
		corners[1][k] = start[k] + du[k]
		corners[2][k] = start[k] + du[k] + dv[k]
		corners[3][k] = start[k] + dv[k]
	}

	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, vec(corners[0]), vec(corners[1]), vec(corners[2]), vec(corners[3]))
	m.Faces = append(m.Faces,
		Face{A: base, B: base + 1, C: base + 2, Material: c.material},
		Face{A: base, B: base + 2, C: base + 3, Material: c.material},
	)
}
