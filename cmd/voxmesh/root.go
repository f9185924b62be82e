package main

import (
	"fmt"

	"github.com/chazu/voxmesh/pkg/asset"
	"github.com/chazu/voxmesh/pkg/cache"
	"github.com/chazu/voxmesh/pkg/config"
	"github.com/chazu/voxmesh/pkg/kernel/sdfx"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// flags are the global command line overrides.
type flags struct {
	configPath string
	logLevel   string
	workers    int
	facing     string
	noCache    bool
}

// app carries state shared by subcommands once flags are parsed.
type app struct {
	flags flags
	cfg   *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "voxmesh",
		Short:         "Voxelize triangle meshes into bit-packed occupancy grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "path to a voxmesh.toml file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.IntVar(&a.flags.workers, "workers", 0, "z-slices classified concurrently (-1 for all CPUs)")
	pf.StringVar(&a.flags.facing, "facing", "", "triangle facing: two-sided or front-only")
	pf.BoolVar(&a.flags.noCache, "no-cache", false, "neither read nor write cache files")

	root.AddCommand(
		newVoxelizeCmd(a),
		newRunCmd(a),
		newInfoCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and installs the
// process logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.flags.configPath != "" {
		var err error
		if cfg, err = config.Load(a.flags.configPath); err != nil {
			return err
		}
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if f.Changed("workers") {
		cfg.Grid.Workers = a.flags.workers
	}
	if f.Changed("facing") {
		cfg.Grid.Facing = a.flags.facing
	}
	if a.flags.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.SetLogger(logger.With("run", uuid.NewString(), "cmd", cmd.Name()))
	a.cfg = cfg
	return nil
}

func (a *app) store() cache.Store {
	return cache.Store{Enabled: a.cfg.Cache.Enabled, AtomicWrites: a.cfg.Cache.AtomicWrites}
}

func (a *app) loader() *asset.Loader {
	return &asset.Loader{
		Store:   a.store(),
		Options: a.cfg.VoxelOptions(),
		Kernel:  sdfx.NewWithCells(a.cfg.Kernel.MeshCells),
	}
}
