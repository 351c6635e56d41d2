// Package cloudstats computes aggregate statistics over decoded point cloud
// records: spatial bounds and centroid, mean color, and the distribution of
// per-point speed magnitudes. All figures are in capture units.
package cloudstats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/horristic/plyseq/internal/ply"
)

// SpeedStats describes the distribution of per-point speed magnitudes in
// metres/second.
type SpeedStats struct {
	Mean   float64
	Median float64
	P95    float64
	Max    float64
}

// Summary holds aggregate statistics for one cloud.
type Summary struct {
	Count     int
	Min       r3.Vec // axis-aligned lower bound
	Max       r3.Vec // axis-aligned upper bound
	Centroid  r3.Vec
	MeanColor [3]float64 // per channel, 0-1
	Speed     SpeedStats
}

// Summarize computes a Summary over records. An empty slice yields a
// zero-count summary with all other fields zero.
func Summarize(records []ply.Record) *Summary {
	s := &Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	lower := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	upper := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	var sum r3.Vec
	var sumR, sumG, sumB float64

	speeds := make([]float64, len(records))
	for i, rec := range records {
		p := r3.Vec{X: float64(rec.X), Y: float64(rec.Y), Z: float64(rec.Z)}
		sum = r3.Add(sum, p)
		lower = r3.Vec{X: math.Min(lower.X, p.X), Y: math.Min(lower.Y, p.Y), Z: math.Min(lower.Z, p.Z)}
		upper = r3.Vec{X: math.Max(upper.X, p.X), Y: math.Max(upper.Y, p.Y), Z: math.Max(upper.Z, p.Z)}
		sumR += float64(rec.R)
		sumG += float64(rec.G)
		sumB += float64(rec.B)
		speeds[i] = rec.Speed()
	}

	n := float64(len(records))
	s.Min = lower
	s.Max = upper
	s.Centroid = r3.Scale(1/n, sum)
	s.MeanColor = [3]float64{sumR / (255 * n), sumG / (255 * n), sumB / (255 * n)}

	// Quantile requires ascending input.
	sort.Float64s(speeds)
	s.Speed = SpeedStats{
		Mean:   stat.Mean(speeds, nil),
		Median: stat.Quantile(0.5, stat.Empirical, speeds, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, speeds, nil),
		Max:    speeds[len(speeds)-1],
	}

	return s
}

// SpeedHistogram computes an equal-width histogram of record speeds with bins
// buckets, returning the bin dividers (len bins+1) alongside the per-bin
// counts. Empty input returns nil slices.
func SpeedHistogram(records []ply.Record, bins int) (dividers, counts []float64) {
	if len(records) == 0 {
		return nil, nil
	}
	if bins < 1 {
		bins = 10
	}

	speeds := make([]float64, len(records))
	for i, rec := range records {
		speeds[i] = rec.Speed()
	}
	sort.Float64s(speeds)

	lo, hi := speeds[0], speeds[len(speeds)-1]
	if hi == lo {
		// Degenerate distribution; widen so the dividers stay increasing.
		hi = lo + 1
	}

	dividers = make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	// Histogram bins are half-open, so the top divider must exceed the
	// largest sample.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(make([]float64, bins), dividers, speeds, nil)
	return dividers, counts
}
