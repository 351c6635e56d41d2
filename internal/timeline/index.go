// Package timeline maps scene frame numbers onto point cloud files on disk
// and drives a scene consumer from frame change requests through a bounded
// decode cache. All of it is single-threaded by contract: playback is driven
// by one sequential request stream, so nothing here locks.
package timeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// frameNumberPattern matches runs of decimal digits. The last run in a file
// name is its frame number: frame_0042.ply → 42, take_2_shot_0099.ply → 99.
var frameNumberPattern = regexp.MustCompile(`\d+`)

// FrameIndex maps frame numbers to point cloud file paths for one scanned
// directory. It is immutable after the scan and safe to share read-only.
type FrameIndex struct {
	dir     string
	files   map[int]string
	frames  []int    // Frame numbers sorted ascending
	skipped []string // .ply file names with no usable frame number
}

// ScanDirectory builds a FrameIndex from the .ply files directly inside dir
// (no recursion). The extension match is case-insensitive. Files without a
// digit run in their name are logged and recorded as skipped rather than
// failing the scan. When two files map to the same frame number the one
// visited last wins, which with os.ReadDir's sorted listing means the
// lexically last name.
func ScanDirectory(dir string) (*FrameIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	idx := &FrameIndex{dir: dir, files: make(map[int]string)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".ply") {
			continue
		}
		frame, ok := frameNumber(name)
		if !ok {
			log.Printf("timeline: no frame number in %q, skipping", name)
			idx.skipped = append(idx.skipped, name)
			continue
		}
		if prev, exists := idx.files[frame]; exists {
			log.Printf("timeline: duplicate frame %d: %q replaces %q", frame, name, filepath.Base(prev))
		}
		idx.files[frame] = filepath.Join(dir, name)
	}

	idx.frames = make([]int, 0, len(idx.files))
	for frame := range idx.files {
		idx.frames = append(idx.frames, frame)
	}
	sort.Ints(idx.frames)
	return idx, nil
}

// frameNumber extracts the frame number from a file name: the last maximal
// run of decimal digits. Runs too large for an int are treated like a name
// without digits.
func frameNumber(name string) (int, bool) {
	runs := frameNumberPattern.FindAllString(name, -1)
	if len(runs) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Dir returns the scanned directory.
func (idx *FrameIndex) Dir() string {
	return idx.dir
}

// Lookup returns the file path for frame, if one exists.
func (idx *FrameIndex) Lookup(frame int) (string, bool) {
	path, ok := idx.files[frame]
	return path, ok
}

// Frames returns all indexed frame numbers in ascending order.
func (idx *FrameIndex) Frames() []int {
	out := make([]int, len(idx.frames))
	copy(out, idx.frames)
	return out
}

// Len returns the number of indexed frames.
func (idx *FrameIndex) Len() int {
	return len(idx.frames)
}

// Range returns the first and last indexed frame numbers. ok is false when
// the index is empty.
func (idx *FrameIndex) Range() (first, last int, ok bool) {
	if len(idx.frames) == 0 {
		return 0, 0, false
	}
	return idx.frames[0], idx.frames[len(idx.frames)-1], true
}

// Skipped returns the .ply file names the scan excluded for having no usable
// frame number.
func (idx *FrameIndex) Skipped() []string {
	out := make([]string, len(idx.skipped))
	copy(out, idx.skipped)
	return out
}
