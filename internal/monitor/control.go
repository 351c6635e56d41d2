package monitor

import "sync"

// DefaultFPS is the playback rate used when a caller passes a non-positive
// rate.
const DefaultFPS = 30

// PlaybackControl is the shared control surface between the HTTP handlers and
// the playback loop. Handlers record the requested state; the loop polls it
// between ticks and applies changes itself, so the frame cache and controller
// never leave the loop goroutine.
type PlaybackControl struct {
	mu     sync.Mutex
	paused bool
	fps    float64
	seek   *int
}

// NewPlaybackControl creates a control surface starting unpaused at fps
// frames per second.
func NewPlaybackControl(fps float64) *PlaybackControl {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &PlaybackControl{fps: fps}
}

// Pause stops frame advancement at the next tick.
func (pc *PlaybackControl) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.paused = true
}

// Play resumes frame advancement.
func (pc *PlaybackControl) Play() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.paused = false
}

// SetFPS changes the playback rate. Non-positive rates are ignored.
func (pc *PlaybackControl) SetFPS(fps float64) {
	if fps <= 0 {
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.fps = fps
}

// RequestSeek queues a jump to frame. A queued seek replaces any earlier one
// the loop has not consumed yet.
func (pc *PlaybackControl) RequestSeek(frame int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.seek = &frame
}

// TakeSeek returns the pending seek target and clears it. ok is false when no
// seek is queued.
func (pc *PlaybackControl) TakeSeek() (frame int, ok bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.seek == nil {
		return 0, false
	}
	frame = *pc.seek
	pc.seek = nil
	return frame, true
}

// State returns the current pause flag and playback rate.
func (pc *PlaybackControl) State() (paused bool, fps float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.paused, pc.fps
}
