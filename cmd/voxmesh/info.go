package main

import (
	"fmt"

	"github.com/chazu/voxmesh/pkg/cache"
	"github.com/chazu/voxmesh/pkg/voxel"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info GRIDFILE...",
		Short: "Describe cached grid files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				grid, err := cache.Load[*voxel.Bitfield](path)
				if err != nil {
					return err
				}
				if grid == nil {
					return fmt.Errorf("%s: empty grid record", path)
				}
				if err := grid.Validate(); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tname=%q\n", path, grid.Name)
				printSummary(cmd, path, grid)
			}
			return nil
		},
	}
}
