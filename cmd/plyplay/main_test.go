package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/horristic/plyseq/internal/config"
	"github.com/horristic/plyseq/internal/monitor"
	"github.com/horristic/plyseq/internal/ply"
	"github.com/horristic/plyseq/internal/timeline"
)

// writeFrameFile writes one minimal frame file with n records.
func writeFrameFile(t *testing.T, dir string, frame, n int) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("ply\n")
	sb.WriteString("format binary_little_endian 1.0\n")
	fmt.Fprintf(&sb, "element vertex %d\n", n)
	sb.WriteString("end_header\n")

	body := make([]byte, 0, n*ply.RECORD_SIZE)
	for i := 0; i < n; i++ {
		body = ply.AppendRecord(body, ply.Record{X: float32(i), VY: 1})
	}

	path := filepath.Join(dir, fmt.Sprintf("frame_%04d.ply", frame))
	if err := os.WriteFile(path, append([]byte(sb.String()), body...), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

// newPlayer builds the playback loop parts over a fixture directory holding
// one frame file per counts entry (frame number → vertex count).
func newPlayer(t *testing.T, counts map[int]int, rate float64) (*timeline.Controller, *timeline.FrameIndex, *monitor.PlaybackStats, *monitor.PlaybackControl) {
	t.Helper()

	dir := t.TempDir()
	for frame, n := range counts {
		writeFrameFile(t, dir, frame, n)
	}
	index, err := timeline.ScanDirectory(dir)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}

	stats := monitor.NewPlaybackStats()
	control := monitor.NewPlaybackControl(rate)
	cache := timeline.NewFrameCache(timeline.DefaultCacheSize)
	ctrl := timeline.NewController(index, cache, &logConsumer{stats: stats})
	return ctrl, index, stats, control
}

func TestPlaybackLoopPlaysSequence(t *testing.T) {
	ctrl, index, stats, control := newPlayer(t, map[int]int{1: 5, 2: 7, 4: 3}, 500)

	if err := playbackLoop(context.Background(), ctrl, index, stats, control); err != nil {
		t.Fatalf("playbackLoop: %v", err)
	}

	snap := stats.GetLatestSnapshot()
	if snap == nil {
		t.Fatal("no stats snapshot after playback")
	}
	if snap.FramesShown != 3 {
		t.Errorf("FramesShown = %d, want 3", snap.FramesShown)
	}
	if snap.FramesHidden != 1 {
		t.Errorf("FramesHidden = %d, want 1 for the gap at frame 3", snap.FramesHidden)
	}
	if snap.CurrentFrame != 4 || !snap.Visible {
		t.Errorf("final position = (%d, %v), want (4, true)", snap.CurrentFrame, snap.Visible)
	}
}

func TestPlaybackLoopSeek(t *testing.T) {
	ctrl, index, stats, control := newPlayer(t, map[int]int{1: 2, 2: 2, 3: 2, 4: 2, 5: 2}, 500)
	control.RequestSeek(4)

	if err := playbackLoop(context.Background(), ctrl, index, stats, control); err != nil {
		t.Fatalf("playbackLoop: %v", err)
	}

	snap := stats.GetLatestSnapshot()
	if snap == nil {
		t.Fatal("no stats snapshot after playback")
	}
	if snap.FramesShown != 2 {
		t.Errorf("FramesShown = %d, want 2 (frames 4 and 5)", snap.FramesShown)
	}
	if snap.CurrentFrame != 5 || !snap.Visible {
		t.Errorf("final position = (%d, %v), want (5, true)", snap.CurrentFrame, snap.Visible)
	}
}

func TestPlaybackLoopPauseHoldsPosition(t *testing.T) {
	ctrl, index, stats, control := newPlayer(t, map[int]int{1: 2, 2: 2}, 200)
	control.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := playbackLoop(ctx, ctrl, index, stats, control)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	shown, hidden, _, _ := stats.GetAndReset()
	if shown != 0 || hidden != 0 {
		t.Errorf("paused loop delivered frames: shown=%d hidden=%d", shown, hidden)
	}
}

func TestPlaybackLoopSeekWhilePaused(t *testing.T) {
	ctrl, index, stats, control := newPlayer(t, map[int]int{1: 4, 2: 6}, 200)
	control.Pause()
	control.RequestSeek(2)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	if err := playbackLoop(ctx, ctrl, index, stats, control); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	shown, _, vertices, _ := stats.GetAndReset()
	if shown != 1 {
		t.Errorf("shown = %d, want exactly the sought frame", shown)
	}
	if vertices != 6 {
		t.Errorf("vertices = %d, want 6", vertices)
	}
	if current, visible := ctrl.CurrentFrame(); current != 2 || !visible {
		t.Errorf("position = (%d, %v), want (2, true)", current, visible)
	}
}

func TestPlaybackLoopLoops(t *testing.T) {
	ctrl, index, stats, control := newPlayer(t, map[int]int{1: 2, 2: 2}, 200)

	*loop = true
	defer func() { *loop = false }()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := playbackLoop(ctx, ctrl, index, stats, control); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	shown, _, _, _ := stats.GetAndReset()
	if shown < 3 {
		t.Errorf("shown = %d, want at least one wrap past the 2-frame sequence", shown)
	}
}

func TestLogConsumer(t *testing.T) {
	stats := monitor.NewPlaybackStats()
	lc := &logConsumer{stats: stats}

	lc.ShowFrame(&timeline.RenderFrame{Frame: 3, X: make([]float32, 5)})
	lc.HideFrame(4)

	shown, hidden, vertices, _ := stats.GetAndReset()
	if shown != 1 || hidden != 1 || vertices != 5 {
		t.Errorf("(shown, hidden, vertices) = (%d, %d, %d), want (1, 1, 5)", shown, hidden, vertices)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{100, 10 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{0.5, 2 * time.Second},
	}
	for _, tc := range tests {
		if got := tickInterval(tc.fps); got != tc.want {
			t.Errorf("tickInterval(%g) = %v, want %v", tc.fps, got, tc.want)
		}
	}
}

func TestFlagDefaults(t *testing.T) {
	if *fps != monitor.DefaultFPS {
		t.Errorf("fps default = %g, want %d", *fps, monitor.DefaultFPS)
	}
	if *cacheSize != timeline.DefaultCacheSize {
		t.Errorf("cache default = %d, want %d", *cacheSize, timeline.DefaultCacheSize)
	}
	if *loop {
		t.Error("loop should default to false")
	}
	if *listen != "" {
		t.Errorf("listen default = %q, want empty (monitor disabled)", *listen)
	}
}

func TestApplyConfig(t *testing.T) {
	// Restore globals so this test cannot leak into the defaults test
	defer func(d string, f float64, l bool, c int, a, db string, li time.Duration) {
		*dir, *fps, *loop, *cacheSize, *listen, *dbFile, *logInterval = d, f, l, c, a, db, li
	}(*dir, *fps, *loop, *cacheSize, *listen, *dbFile, *logInterval)

	fv := 12.0
	lv := true
	cv := 64
	av := ":9090"
	dv := "/data/frames"
	iv := "4s"
	applyConfig(&config.PlaybackConfig{
		Dir:         &dv,
		FPS:         &fv,
		Loop:        &lv,
		CacheSize:   &cv,
		Listen:      &av,
		LogInterval: &iv,
	})

	if *dir != "/data/frames" {
		t.Errorf("dir = %q, want /data/frames", *dir)
	}
	if *fps != 12 {
		t.Errorf("fps = %g, want 12", *fps)
	}
	if !*loop {
		t.Error("loop should be true after config")
	}
	if *cacheSize != 64 {
		t.Errorf("cache = %d, want 64", *cacheSize)
	}
	if *listen != ":9090" {
		t.Errorf("listen = %q, want :9090", *listen)
	}
	if *dbFile != "" {
		t.Errorf("db = %q, want empty (config left it unset)", *dbFile)
	}
	if *logInterval != 4*time.Second {
		t.Errorf("log-interval = %v, want 4s", *logInterval)
	}
}

func TestApplyConfigKeepsDefaultsWhenEmpty(t *testing.T) {
	defer func(f float64, c int, li time.Duration) {
		*fps, *cacheSize, *logInterval = f, c, li
	}(*fps, *cacheSize, *logInterval)

	applyConfig(config.EmptyPlaybackConfig())

	if *fps != monitor.DefaultFPS {
		t.Errorf("fps = %g, want the default %d", *fps, monitor.DefaultFPS)
	}
	if *cacheSize != timeline.DefaultCacheSize {
		t.Errorf("cache = %d, want the default %d", *cacheSize, timeline.DefaultCacheSize)
	}
	if *logInterval != 2*time.Second {
		t.Errorf("log-interval = %v, want 2s", *logInterval)
	}
}
