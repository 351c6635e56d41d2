package ply

import (
	"bufio"
	"fmt"
	"log"
	"os"
)

// ExportASC writes records to a CloudCompare-compatible .asc text file at
// path: one point per line, space-separated X Y Z R G B VX VY VZ columns in
// capture space. comment, when non-empty, is written as an extra header line.
func ExportASC(records []Record, path string, comment string) error {
	if len(records) == 0 {
		return fmt.Errorf("no points to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Exported point cloud\n")
	fmt.Fprintf(w, "# Format: X Y Z R G B VX VY VZ\n")
	if comment != "" {
		fmt.Fprintf(w, "# %s\n", comment)
	}
	for _, r := range records {
		fmt.Fprintf(w, "%.6f %.6f %.6f %d %d %d %.6f %.6f %.6f\n",
			r.X, r.Y, r.Z, r.R, r.G, r.B, r.VX, r.VY, r.VZ)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	log.Printf("Exported %d points to %s", len(records), path)
	return nil
}
