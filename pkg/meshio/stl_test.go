package meshio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func binarySTL(header string, tris [][9]float32) []byte {
	var buf bytes.Buffer
	h := make([]byte, stlHeaderLen)
	copy(h, header)
	buf.Write(h)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(&buf, binary.LittleEndian, [3]float32{}) // normal
		binary.Write(&buf, binary.LittleEndian, tri)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestSTLBinary(t *testing.T) {
	tris := [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1, 0, 0, 0, 1.5},
	}
	// Header starting with "solid" must not trip ASCII detection.
	got, err := STL{}.Parse(binarySTL("solid part", tris))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d meshes, want 1", len(got))
	}
	m := got[0]
	if m.Name != "part" {
		t.Errorf("Name = %q, want %q", m.Name, "part")
	}
	want := append(tris[0][:], tris[1][:]...)
	if diff := cmp.Diff(want, m.Positions); diff != "" {
		t.Errorf("Positions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3, 4, 5}, m.Indices); diff != "" {
		t.Errorf("Indices (-want +got):\n%s", diff)
	}
}

func TestSTLBinaryEmpty(t *testing.T) {
	got, err := STL{}.Parse(binarySTL("", nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].IsEmpty() {
		t.Errorf("got %+v, want one empty mesh", got)
	}
}

const asciiTri = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1e0 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 2
      vertex 1 0 2
      vertex 0 1 2.5
    endloop
  endfacet
endsolid tri
`

func TestSTLASCII(t *testing.T) {
	got, err := STL{}.Parse([]byte(asciiTri))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := got[0]
	if m.Name != "tri" {
		t.Errorf("Name = %q", m.Name)
	}
	wantPos := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 2, 1, 0, 2, 0, 1, 2.5}
	if diff := cmp.Diff(wantPos, m.Positions); diff != "" {
		t.Errorf("Positions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3, 4, 5}, m.Indices); diff != "" {
		t.Errorf("Indices (-want +got):\n%s", diff)
	}
}

func TestSTLErrors(t *testing.T) {
	nan := binarySTL("", [][9]float32{{0, 0, 0, 1, 0, 0, 0, float32(math.NaN()), 0}})
	if _, err := (STL{}).Parse(nan); err != nil {
		t.Errorf("binary STL with NaN should parse, got %v", err)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"garbage", "hello world"},
		{"bad number", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 q\n"},
		{"vertex outside facet", "solid x\nvertex 0 0 0\n"},
		{"two vertices", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\n"},
		{"four vertices", "solid x\nfacet\nvertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\nvertex 1 1 0\n"},
		{"unterminated", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n"},
		{"truncated binary", string(binarySTL("", [][9]float32{{}})[:90])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := STL{}.Parse([]byte(tt.src))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
		})
	}
}
