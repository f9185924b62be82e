package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/voxmesh/pkg/kernel"
)

const (
	stlHeaderLen = 80
	stlTriLen    = 4*3*4 + 2 // normal, three vertices, attribute count
)

// STL reads binary and ASCII stereolithography files into a single mesh.
// Vertices are not welded; each facet contributes three positions.
type STL struct{}

// Parse implements Parser.
func (STL) Parse(data []byte) ([]*kernel.Mesh, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	return nil, &ParseError{Format: "stl", Err: errors.New("neither a binary nor an ASCII stl file")}
}

// isBinarySTL trusts the facet count in the header when the file length
// agrees with it. ASCII files often start with "solid" but some binary
// exporters write that into the header as well.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderLen+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderLen:])
	return uint64(len(data)) == stlHeaderLen+4+uint64(n)*stlTriLen
}

func parseBinarySTL(data []byte) ([]*kernel.Mesh, error) {
	name := strings.TrimRight(string(data[:stlHeaderLen]), " \x00")
	n := int(binary.LittleEndian.Uint32(data[stlHeaderLen:]))
	m := &kernel.Mesh{
		Name:      strings.TrimPrefix(name, "solid "),
		Positions: make([]float32, 0, n*9),
		Indices:   make([]uint32, 0, n*3),
	}
	body := data[stlHeaderLen+4:]
	for t := 0; t < n; t++ {
		tri := body[t*stlTriLen:]
		for v := 0; v < 3; v++ {
			for c := 0; c < 3; c++ {
				const start = 3 * 4 // skip normal
				bits := binary.LittleEndian.Uint32(tri[start+12*v+4*c:])
				m.Positions = append(m.Positions, math.Float32frombits(bits))
			}
			m.Indices = append(m.Indices, uint32(t*3+v))
		}
	}
	return []*kernel.Mesh{m}, nil
}

func parseASCIISTL(data []byte) ([]*kernel.Mesh, error) {
	m := &kernel.Mesh{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	fail := func(err error) error {
		return &ParseError{Format: "stl", Line: line, Err: err}
	}
	inFacet := false
	verts := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			m.Name = strings.Join(fields[1:], " ")
		case "facet":
			if inFacet {
				return nil, fail(errors.New("facet inside facet"))
			}
			inFacet, verts = true, 0
		case "vertex":
			if !inFacet {
				return nil, fail(errors.New("vertex outside facet"))
			}
			if len(fields) != 4 {
				return nil, fail(fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields)-1))
			}
			if verts == 3 {
				return nil, fail(errors.New("facet has more than 3 vertices"))
			}
			for _, f := range fields[1:] {
				x, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fail(err)
				}
				m.Positions = append(m.Positions, float32(x))
			}
			verts++
		case "endfacet":
			if !inFacet || verts != 3 {
				return nil, fail(fmt.Errorf("facet closed with %d vertices", verts))
			}
			base := uint32(m.VertexCount() - 3)
			m.Indices = append(m.Indices, base, base+1, base+2)
			inFacet = false
		case "outer", "endloop", "endsolid":
		default:
			return nil, fail(fmt.Errorf("unexpected %q", fields[0]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fail(err)
	}
	if inFacet {
		return nil, fail(errors.New("unterminated facet"))
	}
	return []*kernel.Mesh{m}, nil
}
