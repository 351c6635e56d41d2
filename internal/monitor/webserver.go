// Package monitor serves the HTTP interface for sequence playback: a status
// page, JSON statistics, chart and plot endpoints, and remote playback
// control.
package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/horristic/plyseq/internal/catalog"
	"github.com/horristic/plyseq/internal/timeline"
	"github.com/horristic/plyseq/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for monitoring sequence playback.
// It provides endpoints for health checks and real-time status information.
type WebServer struct {
	address string
	dir     string
	index   *timeline.FrameIndex
	stats   *PlaybackStats
	control *PlaybackControl
	store   *catalog.Catalog
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server. Index,
// Stats, Control and Catalog are all optional; endpoints that need a missing
// one answer with an explanatory error instead of serving.
type WebServerConfig struct {
	Address string
	Dir     string
	Index   *timeline.FrameIndex
	Stats   *PlaybackStats
	Control *PlaybackControl
	Catalog *catalog.Catalog
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		dir:     config.Dir,
		index:   config.Index,
		stats:   config.Stats,
		control: config.Control,
		store:   config.Catalog,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response is already started; nothing to do but log
		log.Printf("JSON encoding error: %v", err)
	}
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	// Create a shutdown context with a shorter timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/stats", ws.handleStatsJSON)
	mux.HandleFunc("/api/sequence", ws.handleSequenceInfo)
	mux.HandleFunc("/api/playback/status", ws.handlePlaybackStatus)
	mux.HandleFunc("/api/playback/pause", ws.handlePlaybackPause)
	mux.HandleFunc("/api/playback/play", ws.handlePlaybackPlay)
	mux.HandleFunc("/api/playback/rate", ws.handlePlaybackRate)
	mux.HandleFunc("/api/playback/seek", ws.handlePlaybackSeek)
	mux.HandleFunc("/api/export/asc", ws.handleExportASC)
	mux.HandleFunc("/charts/sequence", ws.handleSequenceChart)
	mux.HandleFunc("/charts/frame", ws.handleFrameChart)
	mux.HandleFunc("/charts/speed", ws.handleSpeedChart)
	mux.HandleFunc("/plots/density.png", ws.handleDensityPlot)

	if ws.store != nil {
		ws.store.AttachAdminRoutes(mux)
	}

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "plyseq", "version": "%s", "timestamp": "%s"}`, version.Version, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	dir := ws.dir
	frameCount := 0
	frameRange := "empty"
	skipped := 0
	if ws.index != nil {
		if dir == "" {
			dir = ws.index.Dir()
		}
		frameCount = ws.index.Len()
		if first, last, ok := ws.index.Range(); ok {
			frameRange = fmt.Sprintf("%d to %d", first, last)
		}
		skipped = len(ws.index.Skipped())
	}

	// Determine playback status
	playbackStatus := "not attached"
	if ws.control != nil {
		paused, fps := ws.control.State()
		if paused {
			playbackStatus = fmt.Sprintf("paused (%g fps)", fps)
		} else {
			playbackStatus = fmt.Sprintf("playing (%g fps)", fps)
		}
	}

	uptime := "n/a"
	var snap *StatsSnapshot
	if ws.stats != nil {
		uptime = ws.stats.GetUptime().Round(time.Second).String()
		snap = ws.stats.GetLatestSnapshot()
	}

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Template data
	data := struct {
		Dir            string
		HTTPAddress    string
		FrameCount     int
		FrameRange     string
		SkippedCount   int
		PlaybackStatus string
		Uptime         string
		Stats          *StatsSnapshot
	}{
		Dir:            dir,
		HTTPAddress:    ws.address,
		FrameCount:     frameCount,
		FrameRange:     frameRange,
		SkippedCount:   skipped,
		PlaybackStatus: playbackStatus,
		Uptime:         uptime,
		Stats:          snap,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleStatsJSON returns the latest playback statistics as JSON.
func (ws *WebServer) handleStatsJSON(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no playback stats available")
		return
	}

	type statsResponse struct {
		FramesPerSec   float64 `json:"frames_per_sec"`
		VerticesPerSec float64 `json:"vertices_per_sec"`
		FramesShown    int64   `json:"frames_shown"`
		FramesHidden   int64   `json:"frames_hidden"`
		CurrentFrame   int     `json:"current_frame"`
		Visible        bool    `json:"visible"`
		CacheSize      int     `json:"cache_size"`
		CacheCapacity  int     `json:"cache_capacity"`
		CacheHits      int64   `json:"cache_hits"`
		CacheMisses    int64   `json:"cache_misses"`
		CacheEvictions int64   `json:"cache_evictions"`
		UptimeSeconds  float64 `json:"uptime_seconds"`
		Timestamp      string  `json:"timestamp,omitempty"`
	}

	resp := statsResponse{UptimeSeconds: ws.stats.GetUptime().Seconds()}
	if snap := ws.stats.GetLatestSnapshot(); snap != nil {
		resp.FramesPerSec = snap.FramesPerSec
		resp.VerticesPerSec = snap.VerticesPerSec
		resp.FramesShown = snap.FramesShown
		resp.FramesHidden = snap.FramesHidden
		resp.CurrentFrame = snap.CurrentFrame
		resp.Visible = snap.Visible
		resp.CacheSize = snap.Cache.Size
		resp.CacheCapacity = snap.Cache.Capacity
		resp.CacheHits = snap.Cache.Hits
		resp.CacheMisses = snap.Cache.Misses
		resp.CacheEvictions = snap.Cache.Evictions
		resp.Timestamp = snap.Timestamp.UTC().Format(time.RFC3339)
	}
	ws.writeJSON(w, http.StatusOK, resp)
}

// handleSequenceInfo returns a JSON summary of the scanned frame index.
func (ws *WebServer) handleSequenceInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}

	first, last, _ := ws.index.Range()
	info := struct {
		Dir          string   `json:"dir"`
		FrameCount   int      `json:"frame_count"`
		FirstFrame   int      `json:"first_frame"`
		LastFrame    int      `json:"last_frame"`
		SkippedFiles []string `json:"skipped_files,omitempty"`
	}{
		Dir:          ws.index.Dir(),
		FrameCount:   ws.index.Len(),
		FirstFrame:   first,
		LastFrame:    last,
		SkippedFiles: ws.index.Skipped(),
	}
	ws.writeJSON(w, http.StatusOK, info)
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
