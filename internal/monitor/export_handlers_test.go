package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// redirectExportDir points defaultExportDir at a per-test directory.
func redirectExportDir(t *testing.T) string {
	t.Helper()
	original := defaultExportDir
	dir := t.TempDir()
	defaultExportDir = dir
	t.Cleanup(func() { defaultExportDir = original })
	return dir
}

func TestExportASC(t *testing.T) {
	exportDir := redirectExportDir(t)
	_, index := makeSequenceDir(t, map[int]int{5: 12})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/api/export/asc?frame=5", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("export returned %v want %v: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Frame  int    `json:"frame"`
		Points int    `json:"points"`
		Path   string `json:"path"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp.Status != "ok" || resp.Frame != 5 || resp.Points != 12 {
		t.Errorf("response = %+v, want status ok frame 5 points 12", resp)
	}
	if filepath.Dir(resp.Path) != exportDir {
		t.Errorf("export landed in %s, want %s", filepath.Dir(resp.Path), exportDir)
	}

	data, err := os.ReadFile(resp.Path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Two format header lines, one comment line, then one line per point
	if len(lines) != 3+12 {
		t.Errorf("exported file has %d lines, want %d", len(lines), 3+12)
	}
	if !strings.Contains(lines[2], "frame 5") {
		t.Errorf("comment line = %q, should name the frame", lines[2])
	}
}

func TestExportASCSanitizesFilename(t *testing.T) {
	exportDir := redirectExportDir(t)
	_, index := makeSequenceDir(t, map[int]int{1: 3})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/api/export/asc?frame=1&filename=..%2F..%2Fevil", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("export returned %v: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if filepath.Dir(resp.Path) != exportDir {
		t.Errorf("traversal filename escaped to %s", resp.Path)
	}
	if filepath.Base(resp.Path) != "evil.asc" {
		t.Errorf("exported name = %s, want evil.asc", filepath.Base(resp.Path))
	}
}

func TestExportASCUnknownFrame(t *testing.T) {
	redirectExportDir(t)
	_, index := makeSequenceDir(t, map[int]int{1: 3})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/api/export/asc?frame=99", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown frame returned %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestExportASCWithoutIndex(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	req := httptest.NewRequest("GET", "/api/export/asc", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("export without index returned %v want %v", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestSafeExportPath(t *testing.T) {
	exportDir := redirectExportDir(t)

	tests := []struct {
		name     string
		in       string
		wantBase string
		wantErr  bool
	}{
		{"plain filename", "report.asc", "report.asc", false},
		{"missing extension", "report", "report.asc", false},
		{"directory stripped", "/etc/cron.d/job.asc", "job.asc", false},
		{"traversal stripped", "../../escape.asc", "escape.asc", false},
		{"spaces sanitized", "my export.asc", "my_export.asc", false},
		{"empty", "", "", true},
		{"dot", ".", "", true},
		{"dotdot", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeExportPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("safeExportPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if filepath.Dir(got) != exportDir {
				t.Errorf("safeExportPath(%q) = %s, want a path under %s", tt.in, got, exportDir)
			}
			if filepath.Base(got) != tt.wantBase {
				t.Errorf("safeExportPath(%q) base = %s, want %s", tt.in, filepath.Base(got), tt.wantBase)
			}
		})
	}
}
