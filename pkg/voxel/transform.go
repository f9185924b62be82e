package voxel

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDegenerateBounds is returned when a mesh has zero or non-finite extent.
var ErrDegenerateBounds = errors.New("degenerate mesh bounds")

// Bounds returns the component-wise min/max corner over every vertex of
// every mesh. It reports false when there are no vertices at all.
func Bounds(meshes []*kernel.Mesh) (sdf.Box3, bool) {
	lo := v3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	hi := lo.Neg()
	found := false
	for _, m := range meshes {
		for i := 0; i+2 < len(m.Positions); i += 3 {
			p := vec(m.Positions[i], m.Positions[i+1], m.Positions[i+2])
			lo = lo.Min(p)
			hi = hi.Max(p)
			found = true
		}
	}
	return sdf.Box3{Min: lo, Max: hi}, found
}

// Transform maps mesh space into grid-index space: p*Scale + Offset.
type Transform struct {
	Scale  float64
	Offset v3.Vec
}

// NewTransform derives a uniform scale and per-axis offset that centers the
// bounds in a grid of the given size. The fit is conservative: the largest
// span between any min and max component is mapped onto a quarter of the
// grid, leaving a wide margin on every side.
func NewTransform(bounds sdf.Box3, size uint32) (Transform, error) {
	extent := math.Abs(bounds.Max.MaxComponent() - bounds.Min.MinComponent())
	scale := (float64(size) - 3) / extent / 4
	if extent == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return Transform{}, fmt.Errorf("%w: extent %g for grid size %d", ErrDegenerateBounds, extent, size)
	}
	half := (float64(size) - 1) / 2
	offset := v3.Vec{X: half, Y: half, Z: half}.Sub(bounds.Max.Add(bounds.Min).MulScalar(scale).DivScalar(2))
	return Transform{Scale: scale, Offset: offset}, nil
}

// Apply maps a mesh-space point into grid space.
func (t Transform) Apply(p v3.Vec) v3.Vec {
	return p.MulScalar(t.Scale).Add(t.Offset)
}

// Invert maps a grid-space point back into mesh space.
func (t Transform) Invert(p v3.Vec) v3.Vec {
	return p.Sub(t.Offset).DivScalar(t.Scale)
}

// CellCenter returns the grid-space center of cell (x, y, z).
func CellCenter(x, y, z uint32) v3.Vec {
	return v3.Vec{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: float64(z) + 0.5}
}

func vec(x, y, z float32) v3.Vec {
	return v3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}
}
