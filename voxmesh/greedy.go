package voxmesh

import "sync"

// Mesher merges coplanar voxel faces into rectangles. A Mesher keeps its
// mask buffer between calls and must not be used from two goroutines at
// once.
type Mesher struct {
	mask scratch
}

func NewMesher() *Mesher { return &Mesher{} }

// MeshGreedy meshes vol with a private Mesher.
func MeshGreedy(vol *Volume) *Mesh {
	return NewMesher().Greedy(vol)
}

// Greedy sweeps all three axes and returns the merged quads as triangles.
// It panics if vol is not a valid three-dimensional volume.
func (m *Mesher) Greedy(vol *Volume) *Mesh {
	mustValid(vol)
	mesh := &Mesh{}
	for _, ax := range axisPlans {
		m.sweep(vol, ax, mesh)
	}
	return mesh
}

// GreedyParallel runs the three axis sweeps concurrently, each with its own
// mask, and concatenates them in axis order. The result equals Greedy.
func GreedyParallel(vol *Volume) *Mesh {
	mustValid(vol)
	var parts [3]Mesh
	var wg sync.WaitGroup
	for i, ax := range axisPlans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var m Mesher
			m.sweep(vol, ax, &parts[i])
		}()
	}
	wg.Wait()

	mesh := &Mesh{}
	for i := range parts {
		mesh.Append(&parts[i])
	}
	return mesh
}

func (m *Mesher) sweep(vol *Volume, ax axisPlan, mesh *Mesh) {
	dims := vol.dims
	nu, nv := dims[ax.u], dims[ax.v]
	last := dims[ax.d] - 1
	mask := m.mask.plane(nu * nv)

	var pos [3]int
	for p := -1; p <= last; p++ {
		n := 0
		for j := 0; j < nv; j++ {
			for i := 0; i < nu; i++ {
				pos[ax.u], pos[ax.v] = i, j
				var a, b Material
				if p >= 0 {
					pos[ax.d] = p
					a = vol.at(pos)
				}
				if p < last {
					pos[ax.d] = p + 1
					b = vol.at(pos)
				}
				mask[n] = boundary(a, b)
				n++
			}
		}

		n = 0
		for j := 0; j < nv; j++ {
			for i := 0; i < nu; {
				c := mask[n]
				if c.orient == None {
					i++
					n++
					continue
				}

				width := 1
				for i+width < nu && mask[n+width] == c {
					width++
				}

				height := 1
			grow:
				for j+height < nv {
					row := n + height*nu
					for w := 0; w < width; w++ {
						if mask[row+w] != c {
							break grow
						}
					}
					height++
				}

				var start [3]int
				start[ax.d], start[ax.u], start[ax.v] = p+1, i, j
				mesh.addQuad(start, width, height, ax, c)

				m.mask.consume(n, nu, width, height)
				i += width
				n += width
			}
		}
	}
}

// Pool hands out Meshers to concurrent callers.
type Pool struct {
	p sync.Pool
}

func (p *Pool) Greedy(vol *Volume) *Mesh {
	m, _ := p.p.Get().(*Mesher)
	if m == nil {
		m = NewMesher()
	}
	defer p.p.Put(m)
	return m.Greedy(vol)
}
