package meshio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/chazu/voxmesh/pkg/logging"
)

// OBJ reads Wavefront OBJ geometry. Only vertex positions and faces are
// used; polygons are fan-triangulated and every "o" or "g" statement starts
// a new sub-mesh. Vertices are shared across the file, as OBJ indices are
// global, and each sub-mesh gets its own compacted copy.
type OBJ struct{}

type objBuilder struct {
	verts  [][3]float32
	meshes []*kernel.Mesh
	cur    *kernel.Mesh
	remap  map[int]uint32
}

func (b *objBuilder) start(name string) {
	if b.cur != nil && len(b.cur.Indices) == 0 {
		// Nothing was added under the previous name.
		b.cur.Name = name
		return
	}
	b.cur = &kernel.Mesh{Name: name}
	b.remap = make(map[int]uint32)
	b.meshes = append(b.meshes, b.cur)
}

func (b *objBuilder) index(v int) uint32 {
	if i, ok := b.remap[v]; ok {
		return i
	}
	i := uint32(b.cur.VertexCount())
	p := b.verts[v]
	b.cur.Positions = append(b.cur.Positions, p[0], p[1], p[2])
	b.remap[v] = i
	return i
}

// Parse implements Parser.
func (OBJ) Parse(data []byte) ([]*kernel.Mesh, error) {
	b := &objBuilder{}
	ignored := make(map[string]int)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	fail := func(err error) error {
		return &ParseError{Format: "obj", Line: line, Err: err}
	}

	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fail(fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields)-1))
			}
			var p [3]float32
			for i := range p {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fail(err)
				}
				p[i] = float32(f)
			}
			b.verts = append(b.verts, p)
		case "f":
			if len(fields) < 4 {
				return nil, fail(fmt.Errorf("face needs at least 3 vertices, got %d", len(fields)-1))
			}
			if b.cur == nil {
				b.start("")
			}
			idx := make([]uint32, len(fields)-1)
			for i, ref := range fields[1:] {
				v, err := b.resolve(ref)
				if err != nil {
					return nil, fail(err)
				}
				idx[i] = b.index(v)
			}
			for i := 1; i+1 < len(idx); i++ {
				b.cur.Indices = append(b.cur.Indices, idx[0], idx[i], idx[i+1])
			}
		case "o", "g":
			b.start(strings.Join(fields[1:], " "))
		case "mtllib", "usemtl":
			return nil, fail(fmt.Errorf("%w: material reference %q", ErrUnsupported, text))
		default:
			ignored[fields[0]]++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fail(err)
	}

	for stmt, n := range ignored {
		logging.Logger().Warn("obj statement ignored", "statement", stmt, "count", n)
	}
	out := b.meshes[:0]
	for _, m := range b.meshes {
		if len(m.Indices) > 0 {
			out = append(out, m)
		}
	}
	if len(out) == 0 && len(b.verts) > 0 {
		// Vertices without faces still define bounds.
		m := &kernel.Mesh{}
		for _, p := range b.verts {
			m.Positions = append(m.Positions, p[0], p[1], p[2])
		}
		out = append(out, m)
	}
	return out, nil
}

// resolve turns a face vertex reference ("3", "3/1", "3//2", "-1/2/3")
// into a zero-based position index.
func (b *objBuilder) resolve(ref string) (int, error) {
	s, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q: %w", ref, err)
	}
	switch {
	case n > 0 && n <= len(b.verts):
		return n - 1, nil
	case n < 0 && -n <= len(b.verts):
		return len(b.verts) + n, nil
	default:
		return 0, fmt.Errorf("vertex reference %d: %w", n, errVertexRange)
	}
}

var errVertexRange = errors.New("out of range")
