// Package asset turns mesh files into cached occupancy grids.
//
// Two cache tiers sit next to each source file: the raw file bytes and the
// computed grid. Either is read in preference to recomputation. Every
// failure is reported as an *Error carrying a Kind.
package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chazu/voxmesh/pkg/cache"
	"github.com/chazu/voxmesh/pkg/engine"
	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/meshio"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Loader runs the file-to-grid pipeline.
type Loader struct {
	Store   cache.Store
	Options voxel.Options
	// Parser, when set, is used for every file instead of choosing one by
	// extension.
	Parser meshio.Parser
	// Kernel tessellates solid jobs.
	Kernel kernel.Kernel
}

// NewLoader returns a loader with caching enabled and default options.
func NewLoader(k kernel.Kernel) *Loader {
	return &Loader{Store: cache.DefaultStore(), Kernel: k}
}

// CacheFile returns the bytes of path, from the raw cache tier when it
// exists. The source file must exist even when the cache does.
func (l *Loader) CacheFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: MissingFile, Path: path, Err: err}
		}
		return nil, &Error{Kind: IOError, Path: path, Err: err}
	}
	data, err := cache.ComputeOrLoad(l.Store, path, cache.RawSuffix, func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Kind: IOError, Path: path, Err: err}
		}
		return data, nil
	})
	if err != nil {
		return nil, classify(path, err)
	}
	return data, nil
}

// LoadBitfield returns the size³ grid for the mesh at path, from the grid
// cache tier when it exists. A cached grid of another size is a
// DecodeError; the tier is keyed by path alone.
//
// An invalid size is reported as a plain error wrapping voxel.ErrInvalidDims
// before any file is touched.
func (l *Loader) LoadBitfield(path string, size uint32) (*voxel.Bitfield, error) {
	if err := voxel.Cube(size).Validate(); err != nil {
		return nil, err
	}
	data, err := l.CacheFile(path)
	if err != nil {
		return nil, err
	}
	grid, err := cache.ComputeOrLoad(l.Store, path, cache.GridSuffix, func() (*voxel.Bitfield, error) {
		meshes, err := l.parse(path, data)
		if err != nil {
			return nil, err
		}
		return voxel.Voxelize(path, size, meshes, l.Options)
	})
	if err != nil {
		return nil, classify(path, err)
	}
	if grid == nil {
		return nil, &Error{Kind: DecodeError, Path: path + cache.GridSuffix, Err: errors.New("empty grid record")}
	}
	if err := grid.Validate(); err != nil {
		return nil, &Error{Kind: DecodeError, Path: path + cache.GridSuffix, Err: err}
	}
	if want := voxel.Cube(size); grid.Dimensions != want {
		return nil, &Error{
			Kind: DecodeError,
			Path: path + cache.GridSuffix,
			Err:  fmt.Errorf("cached grid is %s, requested %s", grid.Dimensions, want),
		}
	}
	return grid, nil
}

func (l *Loader) parse(path string, data []byte) ([]*kernel.Mesh, error) {
	p := l.Parser
	if p == nil {
		var err error
		if p, err = meshio.ForPath(path); err != nil {
			return nil, err
		}
	}
	meshes, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("parsed mesh", "path", path, "meshes", len(meshes))
	return meshes, nil
}

// Build runs one script job. Jobs without a size use defaultSize. File jobs
// go through LoadBitfield; solid jobs are tessellated and voxelized without
// touching the cache.
func (l *Loader) Build(job engine.Job, defaultSize uint32) (*voxel.Bitfield, error) {
	size := job.Size
	if size == 0 {
		size = defaultSize
	}
	if job.Path != "" {
		return l.LoadBitfield(job.Path, size)
	}
	if err := voxel.Cube(size).Validate(); err != nil {
		return nil, err
	}
	if job.Solid == nil {
		return nil, &Error{Kind: ParseError, Path: job.Name, Err: errors.New("job has neither a path nor a solid")}
	}
	if l.Kernel == nil {
		return nil, &Error{Kind: UnsupportedFeature, Path: job.Name, Err: errors.New("no solid kernel configured")}
	}
	m, err := l.Kernel.ToMesh(job.Solid)
	if err != nil {
		return nil, &Error{Kind: ParseError, Path: job.Name, Err: err}
	}
	m.Name = job.Name
	grid, err := voxel.Voxelize(job.Name, size, []*kernel.Mesh{m}, l.Options)
	if err != nil {
		return nil, classify(job.Name, err)
	}
	return grid, nil
}
