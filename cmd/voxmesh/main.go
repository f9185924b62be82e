// Command voxmesh voxelizes mesh files and job scripts into cached
// occupancy grids.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "voxmesh:", err)
		os.Exit(1)
	}
}
