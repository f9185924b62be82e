// Package config loads voxmesh settings from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/chazu/voxmesh/pkg/kernel/sdfx"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/voxel"
	"github.com/pelletier/go-toml/v2"
)

// DefaultSize is the grid edge length used when neither the config nor a
// job asks for one.
const DefaultSize = 128

// Config is the root of a voxmesh.toml file.
type Config struct {
	Grid   Grid   `toml:"grid"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
	Kernel Kernel `toml:"kernel"`
}

// Grid controls voxelization.
type Grid struct {
	Size uint32 `toml:"size"`
	// Workers is the number of z-slices classified concurrently; -1 uses
	// every CPU and values below 2 run serially.
	Workers int    `toml:"workers"`
	Facing  string `toml:"facing"`
}

// Cache controls the on-disk cache next to source files.
type Cache struct {
	Enabled      bool `toml:"enabled"`
	AtomicWrites bool `toml:"atomic_writes"`
}

// Log controls the process logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Kernel controls procedural solid tessellation.
type Kernel struct {
	MeshCells int `toml:"mesh_cells"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Grid:   Grid{Size: DefaultSize, Workers: 1, Facing: voxel.TwoSided.String()},
		Cache:  Cache{Enabled: true},
		Log:    Log{Level: "info", Format: "text"},
		Kernel: Kernel{MeshCells: sdfx.DefaultMeshCells},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := voxel.Cube(c.Grid.Size).Validate(); err != nil {
		return fmt.Errorf("grid.size: %w", err)
	}
	if c.Grid.Workers < -1 {
		return fmt.Errorf("grid.workers: %d is below -1", c.Grid.Workers)
	}
	if _, err := voxel.ParseFacing(c.Grid.Facing); err != nil {
		return fmt.Errorf("grid.facing: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: %q is not text or json", c.Log.Format)
	}
	if c.Kernel.MeshCells <= 0 {
		return fmt.Errorf("kernel.mesh_cells: %d must be positive", c.Kernel.MeshCells)
	}
	return nil
}

// VoxelOptions returns the voxelizer options described by the grid section.
// It assumes Validate has passed.
func (c *Config) VoxelOptions() voxel.Options {
	facing, _ := voxel.ParseFacing(c.Grid.Facing)
	return voxel.Options{Workers: c.Grid.Workers, Facing: facing}
}
