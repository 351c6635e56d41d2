package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/horristic/plyseq/internal/cloudstats"
	"github.com/horristic/plyseq/internal/ply"
	"github.com/horristic/plyseq/internal/timeline"
	"github.com/horristic/plyseq/internal/units"
)

// echartsAssetsPrefix is where rendered chart pages load the echarts
// javascript bundle from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleSequenceChart renders a quick line chart (HTML) of vertex count per
// frame across the indexed sequence using go-echarts. Counts come from
// header-only decodes so the sweep stays cheap for long sequences.
// Query params:
//   - max_points (optional; default 2000) to reduce payload size
func (ws *WebServer) handleSequenceChart(w http.ResponseWriter, r *http.Request) {
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}
	if ws.index.Len() == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no frames indexed")
		return
	}

	maxPoints := 2000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 20000 {
			maxPoints = v
		}
	}

	xs, counts, stride := sequenceSeries(ws.index, maxPoints)

	data := make([]opts.LineData, len(counts))
	for i, c := range counts {
		data[i] = opts.LineData{Value: c}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sequence Vertex Counts", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Vertex Count per Frame", Subtitle: fmt.Sprintf("dir=%s frames=%d stride=%d", ws.index.Dir(), ws.index.Len(), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Vertices"}),
	)
	line.SetXAxis(xs).AddSeries("vertices", data)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// sequenceSeries reads the vertex count of every strideth indexed frame.
// A frame whose header fails to decode is charted as zero so one bad file
// does not blank the whole chart.
func sequenceSeries(index *timeline.FrameIndex, maxPoints int) (xs []string, counts []int, stride int) {
	frames := index.Frames()

	// Downsample by stride to stay within maxPoints
	stride = 1
	if len(frames) > maxPoints {
		stride = int(math.Ceil(float64(len(frames)) / float64(maxPoints)))
	}

	for i := 0; i < len(frames); i += stride {
		frame := frames[i]
		count := 0
		if path, ok := index.Lookup(frame); ok {
			if hdr, err := ply.DecodeHeader(path); err == nil {
				count = hdr.VertexCount
			}
		}
		xs = append(xs, strconv.Itoa(frame))
		counts = append(counts, count)
	}
	return xs, counts, stride
}

// handleFrameChart renders a top-down scatter (HTML) of one frame's points in
// scene space, colored by speed.
// Query params:
//   - frame (optional; defaults to the playing frame, else the first indexed frame)
//   - max_points (optional; default 8000) to reduce payload size
//   - units (optional; default mps) for the speed color scale
func (ws *WebServer) handleFrameChart(w http.ResponseWriter, r *http.Request) {
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}

	frame, err := ws.resolveFrame(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	speedUnits := units.MPS
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid units %q, valid units are: %s", u, units.GetValidUnitsString()))
			return
		}
		speedUnits = u
	}

	path, ok := ws.index.Lookup(frame)
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no file for frame %d", frame))
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// The playback cache is owned by the loop goroutine; chart requests
	// decode on their own.
	cloud, err := ply.Decode(path)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("decode frame %d: %v", frame, err))
		return
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(cloud.Records) > maxPoints {
		stride = int(math.Ceil(float64(len(cloud.Records)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(cloud.Records)/stride+1)
	maxAbs := 0.0
	maxSpeed := 0.0
	for i := 0; i < len(cloud.Records); i += stride {
		rec := cloud.Records[i]
		sx, sy, _ := timeline.TransformPosition(rec.X, rec.Y, rec.Z)
		x := float64(sx)
		y := float64(sy)
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}

		speed := units.ConvertSpeed(rec.Speed(), speedUnits)
		if speed > maxSpeed {
			maxSpeed = speed
		}

		data = append(data, opts.ScatterData{Value: []interface{}{x, y, speed}})
	}

	// Add a small padding so points at the edges are visible
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	if maxSpeed == 0 {
		maxSpeed = 1
	}

	// Force a square plot by using equal width/height and symmetric axis ranges
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Frame Scatter", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Frame %d (top down)", frame), Subtitle: fmt.Sprintf("points=%d stride=%d speed in %s", len(data), stride, units.Label(speedUnits))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (scene units)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (scene units)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleSpeedChart renders a bar chart (HTML) of one frame's speed
// distribution.
// Query params:
//   - frame (optional; defaults to the playing frame, else the first indexed frame)
//   - bins (optional; default 24)
//   - units (optional; default mps) for the bucket labels
func (ws *WebServer) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}

	frame, err := ws.resolveFrame(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	speedUnits := units.MPS
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid units %q, valid units are: %s", u, units.GetValidUnitsString()))
			return
		}
		speedUnits = u
	}

	bins := 24
	if b := r.URL.Query().Get("bins"); b != "" {
		if v, err := strconv.Atoi(b); err == nil && v >= 4 && v <= 200 {
			bins = v
		}
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

	dividers, counts := cloudstats.SpeedHistogram(cloud.Records, bins)

	xs := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i := range counts {
		xs[i] = fmt.Sprintf("%.2f", units.ConvertSpeed(dividers[i], speedUnits))
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed Distribution", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Frame %d speed distribution", frame), Subtitle: fmt.Sprintf("points=%d bins=%d bucket lower bounds in %s", len(cloud.Records), bins, units.Label(speedUnits))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: units.Label(speedUnits)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Points"}),
	)
	bar.SetXAxis(xs).AddSeries("points", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// resolveFrame picks the frame for a chart request: the frame query param
// when present, else the frame currently playing, else the first indexed
// frame.
func (ws *WebServer) resolveFrame(r *http.Request) (int, error) {
	if v := r.URL.Query().Get("frame"); v != "" {
		frame, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("bad 'frame' parameter %q", v)
		}
		return frame, nil
	}
	if ws.stats != nil {
		if snap := ws.stats.GetLatestSnapshot(); snap != nil && snap.Visible {
			return snap.CurrentFrame, nil
		}
	}
	if first, _, ok := ws.index.Range(); ok {
		return first, nil
	}
	return 0, fmt.Errorf("no frames indexed")
}
