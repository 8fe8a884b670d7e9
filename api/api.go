package api

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/sync/errgroup"

	"github.com/voxelsplace/voxmesh/palette"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

// Mode selects the mesher used for export.
type Mode string

const (
	ModeGreedy Mode = "greedy"
	ModeNaive  Mode = "naive"
)

// ParseMode accepts "", "greedy" or "naive".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeGreedy:
		return ModeGreedy, nil
	case ModeNaive:
		return ModeNaive, nil
	default:
		return "", fmt.Errorf("unknown mesher %q (want greedy or naive)", s)
	}
}

type ExportOptions struct {
	Mode    Mode
	Palette palette.Options
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{Mode: ModeGreedy, Palette: palette.DefaultOptions()}
}

// MeshVolume runs the selected mesher.
func MeshVolume(vol *voxmesh.Volume, mode Mode) *voxmesh.Mesh {
	if mode == ModeNaive {
		return voxmesh.MeshEachVoxel(vol).Mesh()
	}
	return voxmesh.MeshGreedy(vol)
}

func newDocument(generator string) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float32{1, 1, 1, 1}, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}
	return doc
}

// addMesh writes mesh into doc as a single primitive and returns the
// glTF mesh index. Colours are per vertex; quads never share vertices so
// each vertex takes the colour of its face. Empty meshes are skipped.
func addMesh(doc *gltf.Document, name string, mesh *voxmesh.Mesh, colors map[voxmesh.Material]palette.Color) (uint32, bool) {
	if mesh.IsEmpty() {
		return 0, false
	}
	positions := make([][3]float32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = v
	}
	vcolors := make([][4]float32, len(mesh.Vertices))
	for _, f := range mesh.Faces {
		c := colors[f.Material]
		vcolors[f.A], vcolors[f.B], vcolors[f.C] = c, c, c
		if c[3] < 1 {
			doc.Materials[0].AlphaMode = gltf.AlphaBlend
		}
	}

	posAccessor := modeler.WritePosition(doc, positions)
	colorAccessor := modeler.WriteColor(doc, vcolors)
	indicesAccessor := modeler.WriteIndices(doc, mesh.Indices())
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
			gltf.COLOR_0:  uint32(colorAccessor),
		},
		Indices:  gltf.Index(uint32(indicesAccessor)),
		Material: gltf.Index(0),
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return uint32(len(doc.Meshes) - 1), true
}

func addNode(doc *gltf.Document, name string, meshIdx uint32, at mgl32.Vec3) {
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(meshIdx), Translation: at})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
}

func encodeBinary(doc *gltf.Document) ([]byte, error) {
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// VolumeDocument meshes vol and wraps the result in a glTF document.
func VolumeDocument(vol *voxmesh.Volume, opts ExportOptions) *gltf.Document {
	mesh := MeshVolume(vol, opts.Mode)
	colors := palette.Assign(mesh.Materials(), opts.Palette)
	doc := newDocument("voxmesh " + string(opts.Mode))
	if idx, ok := addMesh(doc, "VolumeMesh", mesh, colors); ok {
		addNode(doc, "Volume", idx, mgl32.Vec3{})
	}
	return doc
}

// VolumeToGLB takes .voxv bytes and returns .glb bytes.
func VolumeToGLB(voxv []byte, opts ExportOptions) ([]byte, error) {
	vol, err := voxmesh.DecodeVolume(voxv)
	if err != nil {
		return nil, err
	}
	return encodeBinary(VolumeDocument(vol, opts))
}

// PackDocument meshes every entry of pack concurrently and lays the
// results out side by side on a square grid in the XZ plane. All entries
// share one palette so equal materials get equal colours.
func PackDocument(ctx context.Context, pack *voxmesh.Pack, opts ExportOptions) (*gltf.Document, error) {
	n := len(pack.Entries)
	if n == 0 {
		return nil, fmt.Errorf("empty pack: no entries")
	}
	meshes := make([]*voxmesh.Mesh, n)
	dims := make([][3]int, n)
	var pool voxmesh.Pool
	g, ctx := errgroup.WithContext(ctx)
	for i := range pack.Entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vol, err := pack.Volume(i)
			if err != nil {
				return err
			}
			dims[i] = vol.Dims()
			if opts.Mode == ModeNaive {
				meshes[i] = voxmesh.MeshEachVoxel(vol).Mesh()
			} else {
				meshes[i] = pool.Greedy(vol)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []voxmesh.Material
	var step mgl32.Vec3
	for i, m := range meshes {
		ids = append(ids, m.Materials()...)
		step = mgl32.Vec3{
			max(step[0], float32(dims[i][0])),
			0,
			max(step[2], float32(dims[i][2])),
		}
	}
	colors := palette.Assign(ids, opts.Palette)

	doc := newDocument("voxmesh pack " + string(opts.Mode))
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	for i, e := range pack.Entries {
		name := filepath.Base(e.Name)
		idx, ok := addMesh(doc, name, meshes[i], colors)
		if !ok {
			continue
		}
		at := mgl32.Vec3{float32(i%cols) * step[0], 0, float32(i/cols) * step[2]}
		addNode(doc, name, idx, at)
	}
	return doc, nil
}

// PackToGLB takes .voxpack bytes and returns .glb bytes.
func PackToGLB(ctx context.Context, packBytes []byte, opts ExportOptions) ([]byte, error) {
	pack, _, err := voxmesh.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	doc, err := PackDocument(ctx, pack, opts)
	if err != nil {
		return nil, err
	}
	return encodeBinary(doc)
}

// PackVolumes builds a .voxpack from named .voxv blobs. Every blob is
// validated first; entries are stored in name order.
func PackVolumes(files map[string][]byte, comp voxmesh.PackCompression) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	if err := voxmesh.CheckNames(names); err != nil {
		return nil, err
	}
	pack := &voxmesh.Pack{Entries: make([]voxmesh.PackEntry, 0, len(files))}
	for _, name := range names {
		if _, _, err := voxmesh.ParseHeader(files[name]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		pack.Entries = append(pack.Entries, voxmesh.PackEntry{Name: name, Data: files[name]})
	}
	return pack.Marshal(comp)
}

// UnpackToMemory returns entry name -> .voxv bytes.
func UnpackToMemory(packBytes []byte) (map[string][]byte, error) {
	pack, _, err := voxmesh.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(pack.Entries))
	for _, e := range pack.Entries {
		out[e.Name] = e.Data
	}
	return out, nil
}
