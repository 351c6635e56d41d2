// plyplay plays a directory of point cloud frames through a logging consumer
// at a fixed rate, with an optional HTTP monitor for status, charts and
// remote playback control.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/horristic/plyseq/internal/catalog"
	"github.com/horristic/plyseq/internal/config"
	"github.com/horristic/plyseq/internal/monitor"
	"github.com/horristic/plyseq/internal/timeline"
	"github.com/horristic/plyseq/internal/version"
)

var (
	dir         = flag.String("dir", "", "Directory of frame files to play")
	fps         = flag.Float64("fps", monitor.DefaultFPS, "Playback rate in frames per second")
	loop        = flag.Bool("loop", false, "Restart from the first frame after the last")
	cacheSize   = flag.Int("cache", timeline.DefaultCacheSize, "Frame cache capacity")
	listen      = flag.String("listen", "", "HTTP listen address for the monitor (empty disables)")
	dbFile      = flag.String("db", "", "Catalog database file (empty disables scan recording)")
	logInterval = flag.Duration("log-interval", 2*time.Second, "Statistics logging interval")
	configFile  = flag.String("config", "", "JSON playback config file; flags set on the command line win")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// logConsumer is the playback sink. ShowFrame and HideFrame arrive
// synchronously from the playback loop; the stats surface carries its own
// lock, so this is safe to share with the web server.
type logConsumer struct {
	stats *monitor.PlaybackStats
}

func (lc *logConsumer) ShowFrame(f *timeline.RenderFrame) {
	lc.stats.AddShown(len(f.X))
}

func (lc *logConsumer) HideFrame(frame int) {
	lc.stats.AddHidden()
}

// tickInterval converts a frames-per-second rate into a ticker period.
func tickInterval(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

// playbackLoop owns the index, cache and controller for its whole lifetime.
// Control intents recorded by the HTTP handlers are polled between ticks, and
// stats are logged from a second ticker in the same select, so the cache
// counters never leave this goroutine.
func playbackLoop(ctx context.Context, ctrl *timeline.Controller, index *timeline.FrameIndex, stats *monitor.PlaybackStats, control *monitor.PlaybackControl) error {
	first, last, ok := index.Range()
	if !ok {
		return fmt.Errorf("no frames to play")
	}

	_, rate := control.State()
	ticker := time.NewTicker(tickInterval(rate))
	defer ticker.Stop()

	logTicker := time.NewTicker(*logInterval)
	defer logTicker.Stop()

	frame := first
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-logTicker.C:
			current, visible := ctrl.CurrentFrame()
			stats.LogStats(current, visible, ctrl.Cache().Stats())
			continue
		case <-ticker.C:
		}

		paused, wantRate := control.State()
		if wantRate != rate {
			rate = wantRate
			ticker.Reset(tickInterval(rate))
		}

		if seek, ok := control.TakeSeek(); ok {
			// Scrubbing works while paused: the sought frame is delivered,
			// then playback stays put until resumed.
			frame = seek
		} else if paused {
			continue
		}

		if err := ctrl.OnFrameRequest(frame); err != nil {
			log.Printf("Frame %d: %v", frame, err)
		}

		if paused {
			continue
		}
		frame++
		if frame > last {
			if !*loop {
				current, visible := ctrl.CurrentFrame()
				stats.LogStats(current, visible, ctrl.Cache().Stats())
				log.Printf("Sequence complete at frame %d", last)
				return nil
			}
			frame = first
		}
	}
}

// applyConfig fills in flags the command line left untouched from a playback
// config file. flag.Visit only reports flags explicitly set, so those keep
// their command line values.
func applyConfig(cfg *config.PlaybackConfig) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["dir"] {
		*dir = cfg.GetDir()
	}
	if !set["fps"] {
		*fps = cfg.GetFPS()
	}
	if !set["loop"] {
		*loop = cfg.GetLoop()
	}
	if !set["cache"] {
		*cacheSize = cfg.GetCacheSize()
	}
	if !set["listen"] {
		*listen = cfg.GetListen()
	}
	if !set["db"] {
		*dbFile = cfg.GetDB()
	}
	if !set["log-interval"] {
		*logInterval = cfg.GetLogInterval()
	}
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("plyplay %s\n", version.String())
		return
	}

	if *configFile != "" {
		cfg, err := config.LoadPlaybackConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		applyConfig(cfg)
	}

	if *dir == "" {
		log.Fatal("Frame directory is required (-dir)")
	}
	if *fps <= 0 {
		log.Fatalf("fps must be greater than 0, got %g", *fps)
	}

	index, err := timeline.ScanDirectory(*dir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *dir, err)
	}
	first, last, ok := index.Range()
	if !ok {
		log.Fatalf("No frame files found in %s", *dir)
	}
	log.Printf("Indexed %d frames (%d to %d) in %s, %d files skipped",
		index.Len(), first, last, *dir, len(index.Skipped()))

	var store *catalog.Catalog
	if *dbFile != "" {
		store, err = catalog.NewCatalog(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open catalog: %v", err)
		}
		defer store.Close()

		scan := &catalog.SequenceScan{
			Dir:          *dir,
			FrameCount:   index.Len(),
			FirstFrame:   &first,
			LastFrame:    &last,
			SkippedFiles: len(index.Skipped()),
		}
		if err := store.RecordScan(scan); err != nil {
			log.Printf("WARNING: failed to record scan: %v", err)
		}
	}

	stats := monitor.NewPlaybackStats()
	control := monitor.NewPlaybackControl(*fps)
	cache := timeline.NewFrameCache(*cacheSize)
	ctrl := timeline.NewController(index, cache, &logConsumer{stats: stats})

	// Create a wait group for the playback loop and HTTP server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Playback loop routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := playbackLoop(ctx, ctrl, index, stats, control); err != nil && err != context.Canceled {
			log.Printf("Playback error: %v", err)
		}
		log.Print("Playback routine terminated")
		// End of sequence shuts the whole process down, monitor included
		stop()
	}()

	// HTTP monitor routine
	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address: *listen,
			Dir:     *dir,
			Index:   index,
			Stats:   stats,
			Control: control,
			Catalog: store,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("Web server error: %v", err)
			}
		}()
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
