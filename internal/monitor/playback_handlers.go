package monitor

import (
	"encoding/json"
	"net/http"
)

// handlePlaybackStatus returns the current playback control state.
// GET /api/playback/status
func (ws *WebServer) handlePlaybackStatus(w http.ResponseWriter, r *http.Request) {
	if ws.control == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "playback control not configured")
		return
	}

	paused, fps := ws.control.State()
	resp := map[string]interface{}{
		"paused": paused,
		"fps":    fps,
	}
	if ws.stats != nil {
		if snap := ws.stats.GetLatestSnapshot(); snap != nil {
			resp["current_frame"] = snap.CurrentFrame
			resp["visible"] = snap.Visible
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handlePlaybackPause pauses playback at the next tick.
// POST /api/playback/pause
func (ws *WebServer) handlePlaybackPause(w http.ResponseWriter, r *http.Request) {
	if ws.control == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "playback control not configured")
		return
	}

	ws.control.Pause()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"paused":  true,
	})
}

// handlePlaybackPlay resumes playback.
// POST /api/playback/play
func (ws *WebServer) handlePlaybackPlay(w http.ResponseWriter, r *http.Request) {
	if ws.control == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "playback control not configured")
		return
	}

	ws.control.Play()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"paused":  false,
	})
}

// handlePlaybackRate sets the playback rate.
// POST /api/playback/rate
// Body: {"fps": 24}
func (ws *WebServer) handlePlaybackRate(w http.ResponseWriter, r *http.Request) {
	if ws.control == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "playback control not configured")
		return
	}

	var body struct {
		FPS float64 `json:"fps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.FPS <= 0 || body.FPS > 240 {
		ws.writeJSONError(w, http.StatusBadRequest, "fps must be greater than 0 and at most 240")
		return
	}

	ws.control.SetFPS(body.FPS)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"fps":     body.FPS,
	})
}

// handlePlaybackSeek queues a jump to a specific frame. The loop applies it
// on its next tick.
// POST /api/playback/seek
// Body: {"frame": 120}
func (ws *WebServer) handlePlaybackSeek(w http.ResponseWriter, r *http.Request) {
	if ws.control == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "playback control not configured")
		return
	}

	var body struct {
		Frame int `json:"frame"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Frame < 0 {
		ws.writeJSONError(w, http.StatusBadRequest, "frame must be non-negative")
		return
	}

	ws.control.RequestSeek(body.Frame)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"frame":   body.Frame,
	})
}
