package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/voxmesh/pkg/cache"
	"github.com/chazu/voxmesh/pkg/engine"
	"github.com/chazu/voxmesh/pkg/kernel/sdfx"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Evaluate a job script and build every grid it declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := args[0]
			src, err := os.ReadFile(script)
			if err != nil {
				return err
			}

			eng := engine.NewEngine(sdfx.NewWithCells(a.cfg.Kernel.MeshCells))
			jobs, evalErrs, err := eng.Evaluate(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", script, err)
			}
			if len(evalErrs) > 0 {
				for _, e := range evalErrs {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", script, e)
				}
				return errors.New("script failed")
			}
			logging.Logger().Info("script evaluated", "script", script, "jobs", len(jobs))

			if outDir != "" {
				if err := checkOutputNames(jobs); err != nil {
					return fmt.Errorf("%s: %w", script, err)
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}
			l := a.loader()
			base := filepath.Dir(script)
			for _, job := range jobs {
				if job.Path != "" && !filepath.IsAbs(job.Path) {
					job.Path = filepath.Join(base, job.Path)
				}
				grid, err := l.Build(job, a.cfg.Grid.Size)
				if err != nil {
					return fmt.Errorf("job %q: %w", job.Name, err)
				}
				printSummary(cmd, job.Name, grid)
				if outDir == "" {
					continue
				}
				out := filepath.Join(outDir, job.Name+cache.GridSuffix)
				if err := a.store().Save(out, grid); err != nil {
					return fmt.Errorf("job %q: %w", job.Name, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write each grid to as NAME"+cache.GridSuffix)
	return cmd
}

// checkOutputNames rejects job names that cannot be used as file names
// inside the output directory, and names used by more than one job.
func checkOutputNames(jobs []engine.Job) error {
	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		switch {
		case job.Name == "", job.Name == ".", job.Name == "..":
			return fmt.Errorf("job name %q is not a valid file name", job.Name)
		case strings.ContainsAny(job.Name, `/\`):
			return fmt.Errorf("job name %q contains a path separator", job.Name)
		case seen[job.Name]:
			return fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
	}
	return nil
}
