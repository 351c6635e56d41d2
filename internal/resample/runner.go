package resample

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/horristic/plyseq/internal/catalog"
	"github.com/horristic/plyseq/internal/monitoring"
	"github.com/horristic/plyseq/internal/timeline"
)

// DefaultSuffix is inserted before the extension of output files when the
// batch writes into the source directory.
const DefaultSuffix = "_sampled"

// BatchOptions configures a directory batch.
type BatchOptions struct {
	Options

	// OutDir receives the resampled files. Empty means alongside the
	// sources in the scanned directory.
	OutDir string

	// Suffix is inserted between the file stem and the extension. When the
	// output lands in the source directory an empty suffix falls back to
	// DefaultSuffix so sources are never overwritten.
	Suffix string
}

// BatchResult summarises a directory batch. Failed holds one message per
// frame that could not be resampled; those frames do not abort the batch.
type BatchResult struct {
	BatchID   string
	Resampled []Result
	Failed    []string
}

// Runner resamples every frame in a directory, optionally recording each
// run in a catalog. Progress diagnostics go through monitoring.Logf.
type Runner struct {
	store *catalog.Catalog
}

// NewRunner creates a batch runner. A nil store disables run recording.
func NewRunner(store *catalog.Catalog) *Runner {
	return &Runner{store: store}
}

// Run resamples every frame file found in srcDir. Frames are processed in
// frame number order; cancellation is checked between frames and returns the
// partial result alongside the context error.
func (r *Runner) Run(ctx context.Context, srcDir string, opts BatchOptions) (*BatchResult, error) {
	if math.IsNaN(opts.Ratio) || opts.Ratio <= 0 {
		return nil, fmt.Errorf("ratio must be in (0, 1], got %v", opts.Ratio)
	}

	index, err := timeline.ScanDirectory(srcDir)
	if err != nil {
		return nil, err
	}
	if index.Len() == 0 {
		return nil, fmt.Errorf("no frame files in %s", srcDir)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = srcDir
	}
	suffix := opts.Suffix
	if suffix == "" && filepath.Clean(outDir) == filepath.Clean(srcDir) {
		// Never overwrite sources in place
		suffix = DefaultSuffix
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	frames := index.Frames()
	batch := &BatchResult{BatchID: uuid.New().String()}
	monitoring.Logf("[resample] Batch %s: %d frames from %s at ratio %g",
		batch.BatchID, len(frames), srcDir, opts.Ratio)

	for i, frame := range frames {
		// Check for cancellation
		select {
		case <-ctx.Done():
			monitoring.Logf("[resample] Batch stopped at frame %d/%d: %v", i+1, len(frames), ctx.Err())
			return batch, fmt.Errorf("batch stopped at frame %d/%d: %w", i+1, len(frames), ctx.Err())
		default:
		}

		srcPath, _ := index.Lookup(frame)
		destPath := filepath.Join(outDir, outputName(srcPath, suffix))

		run := &catalog.ResampleRun{
			BatchID:    batch.BatchID,
			SourcePath: srcPath,
			DestPath:   destPath,
			Ratio:      opts.Ratio,
			Seed:       opts.Seed,
		}
		if r.store != nil {
			if err := r.store.StartRun(run); err != nil {
				monitoring.Logf("[resample] WARNING: failed to record run start: %v", err)
			}
		}

		result, err := File(srcPath, destPath, opts.Options)
		if err != nil {
			monitoring.Logf("[resample] ERROR: frame %d (%s): %v", frame, filepath.Base(srcPath), err)
			batch.Failed = append(batch.Failed, fmt.Sprintf("%s: %v", filepath.Base(srcPath), err))
			if r.store != nil {
				if ferr := r.store.FailRun(run.RunID, err); ferr != nil {
					monitoring.Logf("[resample] WARNING: failed to record run failure: %v", ferr)
				}
			}
			continue
		}

		monitoring.Logf("[resample] Frame %d/%d: %s kept %d/%d vertices",
			i+1, len(frames), filepath.Base(destPath), result.KeptVertices, result.SourceVertices)
		batch.Resampled = append(batch.Resampled, *result)
		if r.store != nil {
			if cerr := r.store.CompleteRun(run.RunID, result.SourceVertices, result.KeptVertices); cerr != nil {
				monitoring.Logf("[resample] WARNING: failed to record run completion: %v", cerr)
			}
		}
	}

	monitoring.Logf("[resample] Batch complete: %d resampled, %d failed",
		len(batch.Resampled), len(batch.Failed))
	return batch, nil
}

// outputName builds the destination filename for one source file, keeping
// the source extension.
func outputName(srcPath, suffix string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}
