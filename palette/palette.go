// Package palette generates well-separated pastel colours, one per material.
//
// Each new colour is the best of a number of random candidates, scored by
// the minimum Manhattan distance to the colours already chosen. Candidates
// are blended toward white by the pastel factor.
package palette

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// Color is linear RGBA in [0,1].
type Color [4]float32

// Hex formats the colour as #rrggbbaa.
func (c Color) Hex() string {
	b := c.RGBA8()
	return fmt.Sprintf("#%02x%02x%02x%02x", b[0], b[1], b[2], b[3])
}

// RGBA8 scales the colour to 0..255, truncating like the plotting layer.
func (c Color) RGBA8() [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(math.Max(0, math.Min(255, float64(v)*255)))
	}
	return out
}

type Options struct {
	// PastelFactor blends candidates toward white; 0 keeps them saturated.
	PastelFactor float64
	// Alpha is written into every colour. 0 means opaque.
	Alpha float32
	// Candidates is the number of random tries per colour after the first.
	Candidates int
	Seed       int64
}

func DefaultOptions() Options {
	return Options{PastelFactor: 0.8, Alpha: 1, Candidates: 100, Seed: 1}
}

// Generator draws colours from a seeded source. It is not safe for
// concurrent use.
type Generator struct {
	opts   Options
	rnd    *rand.Rand
	chosen []Color
}

func NewGenerator(opts Options) *Generator {
	if opts.Candidates < 1 {
		opts.Candidates = 1
	}
	if opts.PastelFactor < 0 {
		opts.PastelFactor = 0
	}
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		opts.Alpha = 1
	}
	return &Generator{opts: opts, rnd: rand.New(rand.NewSource(opts.Seed))}
}

func (g *Generator) random() Color {
	f := g.opts.PastelFactor
	var c Color
	for i := range 3 {
		c[i] = float32((g.rnd.Float64() + f) / (1 + f))
	}
	c[3] = g.opts.Alpha
	return c
}

func distance(a, b Color) float64 {
	var d float64
	for i := range 3 {
		d += math.Abs(float64(a[i] - b[i]))
	}
	return d
}

// Next returns a colour far from every colour returned so far.
func (g *Generator) Next() Color {
	if len(g.chosen) == 0 {
		c := g.random()
		g.chosen = append(g.chosen, c)
		return c
	}
	var best Color
	bestDist := -1.0
	for range g.opts.Candidates {
		c := g.random()
		nearest := math.Inf(1)
		for _, e := range g.chosen {
			nearest = math.Min(nearest, distance(c, e))
		}
		if nearest > bestDist {
			bestDist = nearest
			best = c
		}
	}
	g.chosen = append(g.chosen, best)
	return best
}

// Generate returns n colours.
func Generate(n int, opts Options) []Color {
	g := NewGenerator(opts)
	out := make([]Color, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

// Assign maps each distinct id to a colour. Ids are coloured in ascending
// order so the mapping only depends on the set of ids and the options.
func Assign[K cmp.Ordered](ids []K, opts Options) map[K]Color {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	colors := Generate(len(sorted), opts)
	out := make(map[K]Color, len(sorted))
	for i, id := range sorted {
		out[id] = colors[i]
	}
	return out
}
