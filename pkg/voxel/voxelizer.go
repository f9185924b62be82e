// Package voxel converts triangle meshes into bit-packed occupancy grids.
//
// Every cell casts a ray along +X from its center; the cell is solid when
// the ray crosses the mesh surface an odd number of times. The parity rule
// assumes closed, consistently built geometry. Open or self-intersecting
// meshes give undefined per-cell results and are not repaired.
package voxel

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/chazu/voxmesh/pkg/logging"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidMesh is returned when an input mesh fails validation.
var ErrInvalidMesh = errors.New("invalid mesh")

// castDir is the fixed ray direction.
var castDir = v3.Vec{X: 1}

// Options tune a voxelization run. The zero value is a serial two-sided run.
type Options struct {
	// Workers is the number of z-slices classified concurrently. Values
	// below 2 run on the calling goroutine; -1 uses GOMAXPROCS.
	Workers int
	// Facing selects one- or two-sided triangle hits.
	Facing Facing
}

func (o Options) workers() int {
	if o.Workers < 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// Voxelize builds a size³ grid from meshes. All meshes share one
// normalization; each is indexed and classified in turn and its solid
// cells are OR-ed into the grid.
func Voxelize(name string, size uint32, meshes []*kernel.Mesh, opts Options) (*Bitfield, error) {
	grid, err := NewBitfield(name, Cube(size))
	if err != nil {
		return nil, err
	}
	for i, m := range meshes {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: mesh %d %q: %w", ErrInvalidMesh, i, m.Name, err)
		}
	}

	log := logging.Logger().With("grid", name)
	bounds, ok := Bounds(meshes)
	if !ok {
		log.Debug("no vertices, grid left empty")
		return grid, nil
	}
	tf, err := NewTransform(bounds, size)
	if err != nil {
		return nil, err
	}
	log.Debug("normalized",
		"min", bounds.Min, "max", bounds.Max,
		"scale", tf.Scale, "offset", tf.Offset,
		"grid_min", tf.Apply(bounds.Min), "grid_max", tf.Apply(bounds.Max))

	start := time.Now()
	for i, m := range meshes {
		ix := buildIndex(m, tf)
		log.Debug("built spatial index", "mesh", i, "name", m.Name, "triangles", ix.Len())
		if ix.Len() == 0 {
			continue
		}
		if err := classify(grid, ix, opts); err != nil {
			return nil, err
		}
	}
	log.Info("voxelized",
		"dims", grid.Dimensions.String(),
		"meshes", len(meshes),
		"solid", grid.Count(),
		"elapsed", time.Since(start))
	return grid, nil
}

// buildIndex transforms every triangle of m into grid space. Vertex order
// is reversed on insertion so that, under FrontOnly, rays leaving an
// outward-wound surface register a hit.
func buildIndex(m *kernel.Mesh, tf Transform) *Index {
	ix := NewIndex()
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		ix.Insert(Triangle{
			P0: tf.Apply(vec(c[0], c[1], c[2])),
			P1: tf.Apply(vec(b[0], b[1], b[2])),
			P2: tf.Apply(vec(a[0], a[1], a[2])),
		})
	}
	return ix
}

// classify sets every cell of grid that lies inside the surface held by ix.
func classify(grid *Bitfield, ix *Index, opts Options) error {
	d := grid.Dimensions
	n := opts.workers()
	if n < 2 {
		for z := uint32(0); z < d.Z; z++ {
			classifySlice(grid, ix, z, opts.Facing)
		}
		return nil
	}

	// Each z-slice covers whole words, so slices never share a word.
	var g errgroup.Group
	g.SetLimit(n)
	for z := uint32(0); z < d.Z; z++ {
		g.Go(func() error {
			classifySlice(grid, ix, z, opts.Facing)
			return nil
		})
	}
	return g.Wait()
}

func classifySlice(grid *Bitfield, ix *Index, z uint32, facing Facing) {
	d := grid.Dimensions
	for y := uint32(0); y < d.Y; y++ {
		// Candidates for the first cell of the row cover every later cell,
		// whose rays are suffixes of this one.
		row := ix.Query(Ray{Origin: CellCenter(0, y, z), Direction: castDir})
		if len(row) == 0 {
			continue
		}
		for x := uint32(0); x < d.X; x++ {
			r := Ray{Origin: CellCenter(x, y, z), Direction: castDir}
			if hits := ix.countHits(r, row, facing); hits%2 == 1 {
				grid.Set(Pos{X: x, Y: y, Z: z}, true)
			}
		}
	}
}
