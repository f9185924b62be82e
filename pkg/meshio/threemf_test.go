package meshio

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/hpinc/go3mf"
)

func encode3MF(t *testing.T, model *go3mf.Model) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := go3mf.NewEncoder(&buf).Encode(model); err != nil {
		t.Fatalf("encode 3mf: %v", err)
	}
	return buf.Bytes()
}

func tetrahedron() *go3mf.Mesh {
	m := new(go3mf.Mesh)
	m.Vertices.Vertex = []go3mf.Point3D{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {0, 0, 10}}
	m.Triangles.Triangle = []go3mf.Triangle{
		{V1: 0, V2: 2, V3: 1},
		{V1: 0, V2: 1, V3: 3},
		{V1: 0, V2: 3, V3: 2},
		{V1: 1, V2: 2, V3: 3},
	}
	return m
}

func TestThreeMF(t *testing.T) {
	var model go3mf.Model
	model.Resources.Objects = append(model.Resources.Objects,
		&go3mf.Object{ID: 1, Name: "tet", Type: go3mf.ObjectTypeModel, Mesh: tetrahedron()},
		&go3mf.Object{ID: 2, Name: "tet2", Type: go3mf.ObjectTypeModel, Mesh: tetrahedron()},
	)
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: 1}, &go3mf.Item{ObjectID: 2})

	got, err := ThreeMF{}.Parse(encode3MF(t, &model))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d meshes, want 2", len(got))
	}
	m := got[0]
	if m.Name != "tet" || m.VertexCount() != 4 || m.TriangleCount() != 4 {
		t.Errorf("mesh = %q with %d vertices, %d triangles", m.Name, m.VertexCount(), m.TriangleCount())
	}
	if v := m.Vertex(1); v != [3]float32{10, 0, 0} {
		t.Errorf("Vertex(1) = %v", v)
	}
}

func TestThreeMFMaterials(t *testing.T) {
	withMaterials := func() *go3mf.Model {
		var model go3mf.Model
		model.Resources.Assets = append(model.Resources.Assets, &go3mf.BaseMaterials{
			ID:        5,
			Materials: []go3mf.Base{{Name: "red", Color: color.RGBA{R: 255, A: 255}}},
		})
		return &model
	}

	objectPID := withMaterials()
	objectPID.Resources.Objects = append(objectPID.Resources.Objects,
		&go3mf.Object{ID: 1, Type: go3mf.ObjectTypeModel, PID: 5, Mesh: tetrahedron()})
	objectPID.Build.Items = append(objectPID.Build.Items, &go3mf.Item{ObjectID: 1})

	trianglePID := withMaterials()
	mesh := tetrahedron()
	mesh.Triangles.Triangle[2].PID = 5
	trianglePID.Resources.Objects = append(trianglePID.Resources.Objects,
		&go3mf.Object{ID: 1, Type: go3mf.ObjectTypeModel, Mesh: mesh})
	trianglePID.Build.Items = append(trianglePID.Build.Items, &go3mf.Item{ObjectID: 1})

	for name, model := range map[string]*go3mf.Model{"object": objectPID, "triangle": trianglePID} {
		t.Run(name, func(t *testing.T) {
			_, err := ThreeMF{}.Parse(encode3MF(t, model))
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("err = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestThreeMFNotAPackage(t *testing.T) {
	_, err := ThreeMF{}.Parse([]byte("definitely not a zip archive"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}
