package voxel

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon bounds both the parallel-ray determinant test and the minimum
// accepted hit distance.
const Epsilon = 1e-7

// Facing selects which side of a triangle counts as a hit.
type Facing int

const (
	// TwoSided accepts hits from either side; only rays parallel to the
	// triangle plane are rejected.
	TwoSided Facing = iota
	// FrontOnly accepts only positive determinants (backface culling).
	FrontOnly
)

func (f Facing) String() string {
	switch f {
	case TwoSided:
		return "two-sided"
	case FrontOnly:
		return "front-only"
	}
	return fmt.Sprintf("Facing(%d)", int(f))
}

// ParseFacing maps a config or flag value to a Facing.
func ParseFacing(s string) (Facing, error) {
	switch s {
	case "", "two-sided":
		return TwoSided, nil
	case "front-only":
		return FrontOnly, nil
	}
	return 0, fmt.Errorf("unknown facing %q, expected two-sided or front-only", s)
}

// Ray is a half-line in grid space.
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// Triangle is three grid-space points.
type Triangle struct {
	P0, P1, P2 v3.Vec
}

// Min returns the minimum corner of the triangle's bounding box.
func (t Triangle) Min() v3.Vec {
	return t.P0.Min(t.P1).Min(t.P2)
}

// Max returns the maximum corner of the triangle's bounding box.
func (t Triangle) Max() v3.Vec {
	return t.P0.Max(t.P1).Max(t.P2)
}

// Hit is the result of a ray/triangle test. Distance is +Inf on a miss;
// U and V are barycentric coordinates of the hit point.
type Hit struct {
	Distance float64
	U, V     float64
}

// OK reports whether the ray hit the triangle.
func (h Hit) OK() bool {
	return !math.IsInf(h.Distance, 1)
}

func miss(u, v float64) Hit {
	return Hit{Distance: math.Inf(1), U: u, V: v}
}

// Intersect runs the Möller–Trumbore test of r against t.
func Intersect(r Ray, t Triangle, facing Facing) Hit {
	ab := t.P1.Sub(t.P0)
	ac := t.P2.Sub(t.P0)

	uVec := r.Direction.Cross(ac)
	det := ab.Dot(uVec)

	// Near-zero determinant: the ray lies in or parallel to the plane.
	switch facing {
	case FrontOnly:
		if det < Epsilon {
			return miss(0, 0)
		}
	default:
		if det < Epsilon && det > -Epsilon {
			return miss(0, 0)
		}
	}
	invDet := 1 / det

	toOrigin := r.Origin.Sub(t.P0)
	u := toOrigin.Dot(uVec) * invDet
	if u < 0 || u > 1 {
		return miss(u, 0)
	}

	vVec := toOrigin.Cross(ab)
	v := r.Direction.Dot(vVec) * invDet
	if v < 0 || u+v > 1 {
		return miss(u, v)
	}

	dist := ac.Dot(vVec) * invDet
	if dist <= Epsilon {
		return miss(u, v)
	}
	return Hit{Distance: dist, U: u, V: v}
}

// CrossX reports whether the ray from o along +X hits t. It agrees with
// Intersect for points strictly inside the projected triangle, but a ray
// through an edge or vertex shared by neighbouring triangles counts for
// exactly one of them: ties are resolved as if o were nudged by an
// infinitesimal (+Y, +εZ) offset, and every edge is evaluated with its
// endpoints in a fixed order so both neighbours see the same value.
func CrossX(o v3.Vec, t Triangle, facing Facing) bool {
	ab := t.P1.Sub(t.P0)
	ac := t.P2.Sub(t.P0)
	// Möller–Trumbore determinant for direction +X.
	det := ab.Z*ac.Y - ab.Y*ac.Z
	switch facing {
	case FrontOnly:
		if det < Epsilon {
			return false
		}
	default:
		if det < Epsilon && det > -Epsilon {
			return false
		}
	}

	verts := [3]v3.Vec{t.P0, t.P1, t.P2}
	x := 0.0
	for i, c := range verts {
		a, b := verts[(i+1)%3], verts[(i+2)%3]
		side := edgeFunc(a, b, c)
		if side == 0 {
			return false
		}
		e := edgeFunc(a, b, o)
		s := e
		if s == 0 {
			s = edgeTie(a, b)
		}
		if (s > 0) != (side > 0) || s == 0 {
			return false
		}
		x += e / side * c.X
	}
	return x-o.X > Epsilon
}

// edgeFunc is the signed area of (a, b, p) projected onto the YZ plane,
// always computed from the lexicographically smaller endpoint.
func edgeFunc(a, b, p v3.Vec) float64 {
	if swapped(a, b) {
		return -edgeFunc(b, a, p)
	}
	return (b.Y-a.Y)*(p.Z-a.Z) - (b.Z-a.Z)*(p.Y-a.Y)
}

// edgeTie is the sign edgeFunc takes for a point on the edge after the
// (+Y, +εZ) nudge. Zero means the edge projects to a point.
func edgeTie(a, b v3.Vec) float64 {
	if swapped(a, b) {
		return -edgeTie(b, a)
	}
	if dz := b.Z - a.Z; dz != 0 {
		return -dz
	}
	return b.Y - a.Y
}

func swapped(a, b v3.Vec) bool {
	return b.Y < a.Y || (b.Y == a.Y && b.Z < a.Z)
}
