package asset

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/chazu/voxmesh/pkg/cache"
	"github.com/chazu/voxmesh/pkg/meshio"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// MissingFile: the source path does not exist.
	MissingFile Kind = iota + 1
	// ParseError: the source is not a valid mesh.
	ParseError
	// UnsupportedFeature: the source is valid but uses something the
	// pipeline rejects, such as materials.
	UnsupportedFeature
	// IOError: reading or writing a file failed.
	IOError
	// DecompressionError: a cache file is truncated or corrupt.
	DecompressionError
	// DecodeError: a cache file decompressed but does not match the
	// expected schema.
	DecodeError
)

var kindNames = map[Kind]string{
	MissingFile:        "missing file",
	ParseError:         "parse error",
	UnsupportedFeature: "unsupported feature",
	IOError:            "i/o error",
	DecompressionError: "decompression error",
	DecodeError:        "decode error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the failure type returned by Loader.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// classify wraps err in an *Error. Errors that already carry a Kind are
// returned unchanged.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var pe *meshio.ParseError
	kind := IOError
	switch {
	case errors.Is(err, meshio.ErrUnsupported):
		kind = UnsupportedFeature
	case errors.As(err, &pe),
		errors.Is(err, voxel.ErrInvalidMesh),
		errors.Is(err, voxel.ErrDegenerateBounds):
		kind = ParseError
	case errors.Is(err, cache.ErrDecompress):
		kind = DecompressionError
	case errors.Is(err, cache.ErrDecode):
		kind = DecodeError
	case errors.Is(err, fs.ErrNotExist):
		kind = MissingFile
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
