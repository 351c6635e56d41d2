package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/horristic/plyseq/internal/timeline"
)

// StatsSnapshot represents a snapshot of current playback statistics
type StatsSnapshot struct {
	FramesPerSec   float64
	VerticesPerSec float64
	FramesShown    int64
	FramesHidden   int64
	CurrentFrame   int
	Visible        bool
	Cache          timeline.CacheStats
	Timestamp      time.Time
}

// PlaybackStats tracks playback statistics with thread-safe operations. The
// playback loop feeds it; the web server reads snapshots from its own
// goroutines, so this is the one locked surface between the two.
type PlaybackStats struct {
	mu             sync.Mutex
	shownCount     int64
	hiddenCount    int64
	vertexCount    int64
	totalShown     int64
	totalHidden    int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

// NewPlaybackStats creates a new PlaybackStats instance
func NewPlaybackStats() *PlaybackStats {
	now := time.Now()
	return &PlaybackStats{
		lastReset: now,
		startTime: now,
	}
}

// AddShown records one delivered frame and its vertex count
func (ps *PlaybackStats) AddShown(vertices int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.shownCount++
	ps.totalShown++
	ps.vertexCount += int64(vertices)
}

// AddHidden records one frame request that had no cloud to show
func (ps *PlaybackStats) AddHidden() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.hiddenCount++
	ps.totalHidden++
}

// GetAndReset returns the interval counters and resets them
func (ps *PlaybackStats) GetAndReset() (shown int64, hidden int64, vertices int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ps.lastReset)
	shown = ps.shownCount
	hidden = ps.hiddenCount
	vertices = ps.vertexCount

	ps.shownCount = 0
	ps.hiddenCount = 0
	ps.vertexCount = 0
	ps.lastReset = now

	return
}

// LogStats logs formatted statistics and stores a snapshot for the web
// interface. The caller passes the loop's current position and the cache
// counters since both live on the loop goroutine.
func (ps *PlaybackStats) LogStats(currentFrame int, visible bool, cache timeline.CacheStats) {
	shown, hidden, vertices, duration := ps.GetAndReset()
	if shown > 0 || hidden > 0 {
		framesPerSec := float64(shown) / duration.Seconds()
		verticesPerSec := float64(vertices) / duration.Seconds()

		// Store snapshot for web interface
		ps.mu.Lock()
		ps.latestSnapshot = &StatsSnapshot{
			FramesPerSec:   framesPerSec,
			VerticesPerSec: verticesPerSec,
			FramesShown:    ps.totalShown,
			FramesHidden:   ps.totalHidden,
			CurrentFrame:   currentFrame,
			Visible:        visible,
			Cache:          cache,
			Timestamp:      time.Now(),
		}
		ps.mu.Unlock()

		logMsg := fmt.Sprintf("Playback stats (/sec): %.1f frames, %s vertices, cache %d/%d",
			framesPerSec, FormatWithCommas(int64(verticesPerSec)), cache.Size, cache.Capacity)
		if hidden > 0 {
			logMsg += fmt.Sprintf(", %d hidden", hidden)
		}
		log.Print(logMsg)
	}
}

// GetUptime returns the time since the stats were created
func (ps *PlaybackStats) GetUptime() time.Duration {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return time.Since(ps.startTime)
}

// GetLatestSnapshot returns the most recent stats snapshot for the web interface
func (ps *PlaybackStats) GetLatestSnapshot() *StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.latestSnapshot == nil {
		return nil
	}
	// Return a copy to avoid race conditions
	snapshot := *ps.latestSnapshot
	return &snapshot
}

// FormatWithCommas formats a number with thousands separators
func FormatWithCommas(n int64) string {
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
