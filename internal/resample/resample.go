// Package resample thins point cloud files by drawing a uniform random
// subset of vertex records. Output files keep the source header apart from
// the rewritten vertex count and an optional provenance comment, and every
// output record is a byte-exact copy of a source record.
package resample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/horristic/plyseq/internal/ply"
)

// Options configures one resample pass.
type Options struct {
	// Ratio is the keep fraction in (0, 1]. Values of 1 and above copy
	// every record through unchanged.
	Ratio float64

	// Comment, when non-empty, is embedded as a comment line before
	// end_header in the output (typically provenance: ratio, seed, source).
	Comment string

	// Seed, when non-nil, makes the subset selection deterministic. A nil
	// seed draws from a time-seeded source.
	Seed *int64
}

// Result summarises one completed resample.
type Result struct {
	SourcePath     string
	DestPath       string
	SourceVertices int
	KeptVertices   int
	Ratio          float64
}

// File resamples srcPath into destPath. The kept record count is
// max(1, floor(N·ratio)); selected source indices are sorted ascending so
// output order matches source order. Failures decoding the source carry the
// codec's sentinel errors; on write failure the destination may be left
// partially written.
func File(srcPath, destPath string, opts Options) (*Result, error) {
	if math.IsNaN(opts.Ratio) || opts.Ratio <= 0 {
		return nil, fmt.Errorf("ratio must be in (0, 1], got %v", opts.Ratio)
	}

	cloud, err := ply.Decode(srcPath)
	if err != nil {
		return nil, err
	}

	total := cloud.Header.VertexCount
	keep := keepCount(total, opts.Ratio)

	var body []byte
	if keep >= total {
		keep = total
		body = make([]byte, 0, total*ply.RECORD_SIZE)
		for _, rec := range cloud.Records {
			body = ply.AppendRecord(body, rec)
		}
	} else {
		rng := newRand(opts.Seed)
		indices := rng.Perm(total)[:keep]
		sort.Ints(indices)

		body = make([]byte, 0, keep*ply.RECORD_SIZE)
		for _, i := range indices {
			body = ply.AppendRecord(body, cloud.Records[i])
		}
	}

	if err := ply.Encode(destPath, &cloud.Header, keep, body, opts.Comment); err != nil {
		return nil, fmt.Errorf("write %s: %w", destPath, err)
	}

	return &Result{
		SourcePath:     srcPath,
		DestPath:       destPath,
		SourceVertices: total,
		KeptVertices:   keep,
		Ratio:          opts.Ratio,
	}, nil
}

// keepCount applies the subset size law: max(1, floor(n·ratio)), capped at n.
func keepCount(n int, ratio float64) int {
	keep := int(math.Floor(float64(n) * ratio))
	if keep < 1 {
		keep = 1
	}
	if keep > n {
		keep = n
	}
	return keep
}

func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
