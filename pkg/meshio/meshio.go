// Package meshio reads triangulated mesh files into kernel meshes.
//
// A parser turns a whole file's bytes into one or more sub-meshes. Files
// that reference materials are rejected with ErrUnsupported; nothing in the
// voxel pipeline can use them.
package meshio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/voxmesh/pkg/kernel"
)

// ErrUnsupported is returned for valid input that uses a feature the
// pipeline does not handle, such as material references.
var ErrUnsupported = errors.New("unsupported feature")

// Parser decodes mesh file contents.
type Parser interface {
	Parse(data []byte) ([]*kernel.Mesh, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(data []byte) ([]*kernel.Mesh, error)

// Parse calls f(data).
func (f ParserFunc) Parse(data []byte) ([]*kernel.Mesh, error) {
	return f(data)
}

// ParseError describes malformed input.
type ParseError struct {
	Format string
	// Line is 1-based; zero for binary formats.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ForPath picks a parser from the file extension.
func ForPath(path string) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return OBJ{}, nil
	case ".stl":
		return STL{}, nil
	case ".3mf":
		return ThreeMF{}, nil
	default:
		return nil, fmt.Errorf("%w: no mesh reader for extension %q", ErrUnsupported, ext)
	}
}
