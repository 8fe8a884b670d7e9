package voxmesh

// Orientation records which side of a sweep plane owns a boundary.
type Orientation uint8

const (
	None  Orientation = iota
	Plus              // owned by the voxel below the plane, faces +d
	Minus             // owned by the voxel above the plane, faces -d
)

func (o Orientation) String() string {
	switch o {
	case Plus:
		return "+"
	case Minus:
		return "-"
	}
	return "none"
}

type maskCell struct {
	material Material
	orient   Orientation
}

// boundary classifies the plane between a (below) and b (above).
func boundary(a, b Material) maskCell {
	switch {
	case a == b:
		return maskCell{}
	case a != Empty:
		return maskCell{material: a, orient: Plus}
	default:
		return maskCell{material: b, orient: Minus}
	}
}

// scratch is the per-mesher mask buffer. It only grows.
type scratch struct {
	cells []maskCell
}

// plane returns a view of n cells. Callers overwrite every cell of the
// view before reading it.
func (s *scratch) plane(n int) []maskCell {
	if cap(s.cells) < n {
		s.cells = make([]maskCell, n)
	}
	return s.cells[:n]
}

// consume clears a w*h rectangle starting at base in a plane with the
// given row stride.
func (s *scratch) consume(base, stride, w, h int) {
	for row := 0; row < h; row++ {
		start := base + row*stride
		clear(s.cells[start : start+w])
	}
}
