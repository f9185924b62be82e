package meshio

import (
	"bytes"
	"fmt"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/hpinc/go3mf"
)

// ThreeMF reads the mesh objects of a 3MF package, one sub-mesh per
// object. Build item transforms are not applied. Component-only objects
// are skipped.
type ThreeMF struct{}

// Parse implements Parser.
func (ThreeMF) Parse(data []byte) ([]*kernel.Mesh, error) {
	var model go3mf.Model
	d := go3mf.NewDecoder(bytes.NewReader(data), int64(len(data)))
	if err := d.Decode(&model); err != nil {
		return nil, &ParseError{Format: "3mf", Err: err}
	}

	var meshes []*kernel.Mesh
	for _, obj := range model.Resources.Objects {
		if obj.Mesh == nil {
			continue
		}
		if obj.PID != 0 {
			return nil, fmt.Errorf("%w: object %d references property group %d", ErrUnsupported, obj.ID, obj.PID)
		}
		m := &kernel.Mesh{Name: obj.Name}
		for _, v := range obj.Mesh.Vertices.Vertex {
			m.Positions = append(m.Positions, v[0], v[1], v[2])
		}
		for _, t := range obj.Mesh.Triangles.Triangle {
			if t.PID != 0 {
				return nil, fmt.Errorf("%w: object %d triangle references property group %d", ErrUnsupported, obj.ID, t.PID)
			}
			m.Indices = append(m.Indices, t.V1, t.V2, t.V3)
		}
		if err := m.Validate(); err != nil {
			return nil, &ParseError{Format: "3mf", Err: fmt.Errorf("object %d: %w", obj.ID, err)}
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}
