package kernel

import (
	"errors"
	"fmt"
)

// ErrMalformedMesh is returned by Validate when the index or position
// arrays are inconsistent.
var ErrMalformedMesh = errors.New("malformed mesh")

// Mesh is one triangulated object: flat vertex positions and index triples.
// A source file may hold several meshes (sub-meshes); they are voxelized
// into the same grid.
type Mesh struct {
	Name      string    `json:"name"`
	Positions []float32 `json:"positions"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices   []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) [3]float32 {
	p := m.Positions[i*3 : i*3+3]
	return [3]float32{p[0], p[1], p[2]}
}

// Triangle returns the three vertex positions of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c [3]float32) {
	idx := m.Indices[t*3 : t*3+3]
	return m.Vertex(idx[0]), m.Vertex(idx[1]), m.Vertex(idx[2])
}

// Validate checks that positions come in whole triples and that every
// index refers to an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position components is not a multiple of 3", ErrMalformedMesh, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrMalformedMesh, len(m.Indices))
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at position %d out of range (%d vertices)", ErrMalformedMesh, idx, i, n)
		}
	}
	return nil
}
