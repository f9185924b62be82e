package main

import (
	"fmt"

	"github.com/chazu/voxmesh/pkg/voxel"
	"github.com/spf13/cobra"
)

func newVoxelizeCmd(a *app) *cobra.Command {
	var size uint32
	cmd := &cobra.Command{
		Use:   "voxelize FILE...",
		Short: "Voxelize mesh files, caching the grid next to each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("size") {
				size = a.cfg.Grid.Size
			}
			l := a.loader()
			for _, path := range args {
				grid, err := l.LoadBitfield(path, size)
				if err != nil {
					return err
				}
				printSummary(cmd, path, grid)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&size, "size", 0, "grid edge length, a multiple of 32 (default from config)")
	return cmd
}

func printSummary(cmd *cobra.Command, label string, grid *voxel.Bitfield) {
	cells := grid.Dimensions.Cells()
	solid := grid.Count()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d solid\t%.2f%%\n",
		label, grid.Dimensions, solid, 100*float64(solid)/float64(cells))
}
