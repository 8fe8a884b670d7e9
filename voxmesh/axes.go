package voxmesh

// axisPlan names the sweep axis d and the two in-plane axes. u is the
// fast (inner) scan axis, v the slow one.
type axisPlan struct {
	d, u, v int
}

var axisPlans = [3]axisPlan{
	{d: 0, u: 1, v: 2},
	{d: 1, u: 2, v: 0},
	{d: 2, u: 0, v: 1},
}
