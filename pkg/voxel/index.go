package voxel

import (
	"github.com/dhconnelly/rtreego"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// R-tree node fan-out.
	minChildren = 4
	maxChildren = 16

	// boundsPad inflates every box so that rays grazing a face or edge of
	// a bounding box are still reported by the broad phase.
	boundsPad = 1e-4
)

// entry is the R-tree's view of one arena slot.
type entry struct {
	slot   int
	bounds rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.bounds
}

// Index is a bounding volume hierarchy over triangles. Triangles live in an
// arena owned by the index; the tree holds slot numbers only.
type Index struct {
	tris []Triangle
	tree *rtreego.Rtree
	max  v3.Vec
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(3, minChildren, maxChildren)}
}

// Insert adds a triangle and returns its slot.
func (ix *Index) Insert(t Triangle) int {
	slot := len(ix.tris)
	ix.tris = append(ix.tris, t)
	lo, hi := t.Min(), t.Max()
	if slot == 0 {
		ix.max = hi
	} else {
		ix.max = ix.max.Max(hi)
	}
	ix.tree.Insert(&entry{slot: slot, bounds: padRect(lo, hi)})
	return slot
}

// Len returns the number of triangles in the index.
func (ix *Index) Len() int {
	return len(ix.tris)
}

// Triangle returns the triangle stored in slot.
func (ix *Index) Triangle(slot int) Triangle {
	return ix.tris[slot]
}

// Query returns the slots of triangles whose bounding box the ray may
// cross. It performs no exact test. Only rays along +X are supported by
// the box query; other directions fall back to every slot.
func (ix *Index) Query(r Ray) []int {
	if len(ix.tris) == 0 || r.Origin.X > ix.max.X+boundsPad {
		return nil
	}
	if r.Direction.X <= 0 || r.Direction.Y != 0 || r.Direction.Z != 0 {
		all := make([]int, len(ix.tris))
		for i := range all {
			all[i] = i
		}
		return all
	}
	o := r.Origin
	span := padRect(o, v3.Vec{X: ix.max.X, Y: o.Y, Z: o.Z})
	found := ix.tree.SearchIntersect(span)
	slots := make([]int, len(found))
	for i, s := range found {
		slots[i] = s.(*entry).slot
	}
	return slots
}

// Crossings counts the surface crossings along the ray.
func (ix *Index) Crossings(r Ray, facing Facing) int {
	return ix.countHits(r, ix.Query(r), facing)
}

// countHits runs the narrow phase over slots. Rays along +X use CrossX so
// that a shared edge or vertex is crossed once.
func (ix *Index) countHits(r Ray, slots []int, facing Facing) int {
	alongX := r.Direction.X > 0 && r.Direction.Y == 0 && r.Direction.Z == 0
	n := 0
	for _, s := range slots {
		var hit bool
		if alongX {
			hit = CrossX(r.Origin, ix.tris[s], facing)
		} else {
			hit = Intersect(r, ix.tris[s], facing).OK()
		}
		if hit {
			n++
		}
	}
	return n
}

func padRect(lo, hi v3.Vec) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{lo.X - boundsPad, lo.Y - boundsPad, lo.Z - boundsPad},
		rtreego.Point{hi.X + boundsPad, hi.Y + boundsPad, hi.Z + boundsPad},
	)
	if err != nil {
		// Only a dimension mismatch fails, and both points are 3D.
		panic(err)
	}
	return r
}
