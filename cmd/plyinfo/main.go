// plyinfo prints the header, metadata and optional aggregate statistics of a
// single point cloud file, and can export its records to an .asc text file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/horristic/plyseq/internal/cloudstats"
	"github.com/horristic/plyseq/internal/ply"
	"github.com/horristic/plyseq/internal/units"
	"github.com/horristic/plyseq/internal/version"
)

// formatWithCommas formats a number with thousands separators
func formatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}

func main() {
	var headerOnly bool
	var showStats bool
	var ascPath string
	var speedUnits string
	var showVersion bool

	flag.BoolVar(&headerOnly, "header-only", false, "print the header and metadata without decoding the body")
	flag.BoolVar(&showStats, "stats", false, "compute aggregate statistics over the decoded records")
	flag.StringVar(&ascPath, "asc", "", "export decoded records to this .asc text file")
	flag.StringVar(&speedUnits, "units", units.MPS, "speed units for -stats output")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("plyinfo %s\n", version.String())
		return
	}

	if !units.IsValid(speedUnits) {
		log.Fatalf("invalid units %q, valid units are: %s", speedUnits, units.GetValidUnitsString())
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: plyinfo [flags] file.ply")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if headerOnly {
		hdr, err := ply.DecodeHeader(path)
		if err != nil {
			log.Fatalf("failed to decode header: %v", err)
		}
		printHeader(path, hdr)
		return
	}

	cloud, err := ply.Decode(path)
	if err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}
	printHeader(path, &cloud.Header)
	fmt.Printf("\nBody: %s records, %s bytes\n",
		formatWithCommas(int64(len(cloud.Records))),
		formatWithCommas(int64(len(cloud.Records)*ply.RECORD_SIZE)))

	if showStats {
		printStats(cloudstats.Summarize(cloud.Records), speedUnits)
	}

	if ascPath != "" {
		comment := fmt.Sprintf("source: %s", filepath.Base(path))
		if err := ply.ExportASC(cloud.Records, ascPath, comment); err != nil {
			log.Fatalf("failed to export asc: %v", err)
		}
	}
}

func printHeader(path string, hdr *ply.Header) {
	fmt.Printf("%s: %s vertices declared, body at byte %d\n",
		path, formatWithCommas(int64(hdr.VertexCount)), hdr.DataOffset)

	fmt.Printf("\nHeader (%d lines):\n", len(hdr.Lines))
	for _, line := range hdr.Lines {
		fmt.Printf("  %s\n", line)
	}

	printMetadata(hdr.Meta)
}

func printMetadata(meta ply.Metadata) {
	fmt.Println("\nMetadata:")
	recognised := false
	if meta.PointCloudFrame != nil {
		fmt.Printf("  point cloud frame: %d\n", *meta.PointCloudFrame)
		recognised = true
	}
	if meta.BvhFrame != nil {
		fmt.Printf("  bvh frame: %d\n", *meta.BvhFrame)
		recognised = true
	}
	if meta.TorsoPosition != nil {
		tp := *meta.TorsoPosition
		fmt.Printf("  torso position: %.4f %.4f %.4f\n", tp[0], tp[1], tp[2])
		recognised = true
	}
	if !recognised {
		fmt.Println("  (no recognised markers)")
	}
	if n := len(meta.Comments); n > 0 {
		fmt.Printf("  comment payloads: %d\n", n)
	}
}

func printStats(s *cloudstats.Summary, speedUnits string) {
	fmt.Println("\nStatistics (capture units):")
	fmt.Printf("  points:     %s\n", formatWithCommas(int64(s.Count)))
	if s.Count == 0 {
		return
	}
	fmt.Printf("  bounds min: %.4f %.4f %.4f\n", s.Min.X, s.Min.Y, s.Min.Z)
	fmt.Printf("  bounds max: %.4f %.4f %.4f\n", s.Max.X, s.Max.Y, s.Max.Z)
	fmt.Printf("  centroid:   %.4f %.4f %.4f\n", s.Centroid.X, s.Centroid.Y, s.Centroid.Z)
	fmt.Printf("  mean color: %.3f %.3f %.3f\n", s.MeanColor[0], s.MeanColor[1], s.MeanColor[2])
	fmt.Printf("  speed %s:  mean %.3f, median %.3f, p95 %.3f, max %.3f\n",
		units.Label(speedUnits),
		units.ConvertSpeed(s.Speed.Mean, speedUnits),
		units.ConvertSpeed(s.Speed.Median, speedUnits),
		units.ConvertSpeed(s.Speed.P95, speedUnits),
		units.ConvertSpeed(s.Speed.Max, speedUnits))
}
