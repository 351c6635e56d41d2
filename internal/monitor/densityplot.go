package monitor

import (
	"fmt"
	"log"
	"math"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/horristic/plyseq/internal/ply"
	"github.com/horristic/plyseq/internal/timeline"
)

// densityGridBins is the number of cells per axis in the occupancy heat map.
const densityGridBins = 80

// occupancyGrid buckets scene-space X/Y positions into a fixed grid of point
// counts. It implements plotter.GridXYZ for heat map rendering.
type occupancyGrid struct {
	counts []float64
	bins   int
	minX   float64
	minY   float64
	cellW  float64
	cellH  float64
}

// newOccupancyGrid builds a bins×bins occupancy grid spanning the bounds of
// the given positions. xs and ys are parallel.
func newOccupancyGrid(xs, ys []float64, bins int) *occupancyGrid {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := range xs {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	// Degenerate and empty spans still need nonzero cell sizes.
	if minX > maxX {
		minX, maxX = 0, 1
	}
	if minY > maxY {
		minY, maxY = 0, 1
	}
	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}

	g := &occupancyGrid{
		counts: make([]float64, bins*bins),
		bins:   bins,
		minX:   minX,
		minY:   minY,
		cellW:  (maxX - minX) / float64(bins),
		cellH:  (maxY - minY) / float64(bins),
	}
	for i := range xs {
		c := int((xs[i] - minX) / g.cellW)
		r := int((ys[i] - minY) / g.cellH)
		if c >= bins {
			c = bins - 1
		}
		if r >= bins {
			r = bins - 1
		}
		g.counts[r*bins+c]++
	}
	return g
}

func (g *occupancyGrid) Dims() (c, r int) { return g.bins, g.bins }

func (g *occupancyGrid) Z(c, r int) float64 { return g.counts[r*g.bins+c] }

func (g *occupancyGrid) X(c int) float64 { return g.minX + (float64(c)+0.5)*g.cellW }

func (g *occupancyGrid) Y(r int) float64 { return g.minY + (float64(r)+0.5)*g.cellH }

// handleDensityPlot renders a PNG heat map of one frame's point density in the
// scene-space X/Y plane.
// Query params:
//   - frame (optional; defaults to the playing frame, else the first indexed frame)
func (ws *WebServer) handleDensityPlot(w http.ResponseWriter, r *http.Request) {
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}

	frame, err := ws.resolveFrame(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, ok := ws.index.Lookup(frame)
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no file for frame %d", frame))
		return
	}

	cloud, err := ply.Decode(path)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("decode frame %d: %v", frame, err))
		return
	}

	xs := make([]float64, len(cloud.Records))
	ys := make([]float64, len(cloud.Records))
	for i, rec := range cloud.Records {
		sx, sy, _ := timeline.TransformPosition(rec.X, rec.Y, rec.Z)
		xs[i] = float64(sx)
		ys[i] = float64(sy)
	}

	grid := newOccupancyGrid(xs, ys, densityGridBins)
	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Frame %d point density", frame)
	p.X.Label.Text = "X (scene units)"
	p.Y.Label.Text = "Y (scene units)"
	p.Add(hm)

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		log.Printf("density plot write error: %v", err)
	}
}
