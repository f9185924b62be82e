package voxel

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/chazu/voxmesh/pkg/meshio"
)

// fanBox builds a closed, outward-wound axis-aligned box. Each face is a
// fan of four triangles around an off-center interior point.
func fanBox(lo, hi [3]float32) *kernel.Mesh {
	x0, y0, z0 := lo[0], lo[1], lo[2]
	x1, y1, z1 := hi[0], hi[1], hi[2]
	faces := [6][4][3]float32{
		{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}, // -x
		{{x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}, {x1, y0, z1}}, // +x
		{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}, // -y
		{{x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}}, // +y
		{{x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}, {x1, y0, z0}}, // -z
		{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}, // +z
	}
	const fu, fv = 0.37, 0.41
	m := &kernel.Mesh{Name: "box"}
	for _, q := range faces {
		base := uint32(m.VertexCount())
		for _, c := range q {
			m.Positions = append(m.Positions, c[0], c[1], c[2])
		}
		a, b, d := q[0], q[1], q[3]
		for i := 0; i < 3; i++ {
			m.Positions = append(m.Positions, a[i]+fu*(b[i]-a[i])+fv*(d[i]-a[i]))
		}
		for i := uint32(0); i < 4; i++ {
			m.Indices = append(m.Indices, base+4, base+i, base+(i+1)%4)
		}
	}
	return m
}

// merge concatenates meshes into one.
func merge(meshes ...*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{Name: "merged"}
	for _, m := range meshes {
		base := uint32(out.VertexCount())
		out.Positions = append(out.Positions, m.Positions...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}

// insideBox reports whether the grid-space point p lies strictly inside
// the transformed box.
func insideBox(tf Transform, lo, hi [3]float32, x, y, z uint32) bool {
	l := tf.Apply(vec(lo[0], lo[1], lo[2]))
	h := tf.Apply(vec(hi[0], hi[1], hi[2]))
	p := CellCenter(x, y, z)
	return l.X < p.X && p.X < h.X && l.Y < p.Y && p.Y < h.Y && l.Z < p.Z && p.Z < h.Z
}

// plainBoxOBJ returns a box as OBJ text with eight vertices and twelve
// triangles, two per face. The face diagonals run corner to corner, so
// after normalization the central rays pass exactly through them.
func plainBoxOBJ(lo, hi [3]float32) string {
	var b strings.Builder
	for _, c := range [8][3]float32{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	} {
		fmt.Fprintf(&b, "v %g %g %g\n", c[0], c[1], c[2])
	}
	b.WriteString(`f 1 4 3
f 1 3 2
f 5 6 7
f 5 7 8
f 1 2 6
f 1 6 5
f 4 8 7
f 4 7 3
f 1 5 8
f 1 8 4
f 2 3 7
f 2 7 6
`)
	return b.String()
}

func parseOBJ(t *testing.T, src string) []*kernel.Mesh {
	t.Helper()
	meshes, err := meshio.OBJ{}.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse OBJ: %v", err)
	}
	return meshes
}
