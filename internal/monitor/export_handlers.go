package monitor

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/horristic/plyseq/internal/ply"
	"github.com/horristic/plyseq/internal/security"
)

// defaultExportDir anchors every HTTP-triggered export. Requests choose a
// file name at most; the directory is fixed so remote callers cannot write
// anywhere else.
var defaultExportDir = func() string {
	tmp := os.TempDir()
	abs, err := filepath.Abs(tmp)
	if err != nil {
		log.Printf("export: could not resolve absolute temp dir from %q: %v", tmp, err)
		return tmp
	}
	return filepath.Clean(abs)
}()

// safeExportPath builds the absolute destination for an export. Only the base
// name of userPath survives; it is sanitized, anchored under defaultExportDir
// and validated before use.
func safeExportPath(userPath string) (string, error) {
	if userPath == "" {
		return "", fmt.Errorf("empty export filename")
	}
	base := filepath.Base(userPath)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid export filename %q", userPath)
	}
	name := security.SanitizeFilename(base)
	if filepath.Ext(name) == "" {
		name += ".asc"
	}

	joined := filepath.Join(defaultExportDir, name)
	if err := security.ValidatePathWithinDirectory(joined, defaultExportDir); err != nil {
		log.Printf("Security: rejected export path %q: %v", userPath, err)
		return "", fmt.Errorf("invalid export path: %w", err)
	}
	if err := security.ValidateExportPath(joined); err != nil {
		log.Printf("Security: rejected export path %q: %v", userPath, err)
		return "", fmt.Errorf("invalid export path: %w", err)
	}
	return joined, nil
}

// handleExportASC writes one frame's records to an .asc file under the
// export directory.
// GET /api/export/asc?frame=120&filename=out.asc
// frame defaults to the playing frame and filename to frame_<n>.asc.
func (ws *WebServer) handleExportASC(w http.ResponseWriter, r *http.Request) {
	if ws.index == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no sequence index configured")
		return
	}

	frame, err := ws.resolveFrame(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	srcPath, ok := ws.index.Lookup(frame)
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no file for frame %d", frame))
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = fmt.Sprintf("frame_%d.asc", frame)
	}
	dest, err := safeExportPath(filename)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	cloud, err := ply.Decode(srcPath)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("decode frame %d: %v", frame, err))
		return
	}

	comment := fmt.Sprintf("frame %d, source: %s", frame, filepath.Base(srcPath))
	if err := ply.ExportASC(cloud.Records, dest, comment); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("export error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"frame":  frame,
		"points": len(cloud.Records),
		"path":   dest,
	})
}
