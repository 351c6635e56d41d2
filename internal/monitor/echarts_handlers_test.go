package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSequenceChart(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{1: 10, 2: 20, 3: 30})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/sequence", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("sequence chart returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	if ctype := rr.Header().Get("Content-Type"); !strings.HasPrefix(ctype, "text/html") {
		t.Errorf("sequence chart content type = %q, want text/html", ctype)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "echarts") {
		t.Error("chart page should reference echarts")
	}
	if !strings.Contains(body, "Vertex Count per Frame") {
		t.Error("chart page should carry its title")
	}
}

func TestSequenceChartWithoutIndex(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	req := httptest.NewRequest("GET", "/charts/sequence", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("sequence chart without index: got %v want %v", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestSequenceSeries(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{1: 10, 2: 20, 4: 40})

	xs, counts, stride := sequenceSeries(index, 2000)

	if stride != 1 {
		t.Errorf("stride = %d, want 1", stride)
	}
	wantX := []string{"1", "2", "4"}
	wantCounts := []int{10, 20, 40}
	if len(xs) != len(wantX) {
		t.Fatalf("len(xs) = %d, want %d", len(xs), len(wantX))
	}
	for i := range wantX {
		if xs[i] != wantX[i] {
			t.Errorf("xs[%d] = %q, want %q", i, xs[i], wantX[i])
		}
		if counts[i] != wantCounts[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], wantCounts[i])
		}
	}
}

func TestSequenceSeriesStride(t *testing.T) {
	counts := make(map[int]int)
	for frame := 1; frame <= 10; frame++ {
		counts[frame] = frame
	}
	_, index := makeSequenceDir(t, counts)

	xs, _, stride := sequenceSeries(index, 4)

	if stride != 3 {
		t.Errorf("stride = %d, want 3", stride)
	}
	// Frames 1, 4, 7, 10 at stride 3
	want := []string{"1", "4", "7", "10"}
	if len(xs) != len(want) {
		t.Fatalf("len(xs) = %d, want %d", len(xs), len(want))
	}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("xs[%d] = %q, want %q", i, xs[i], want[i])
		}
	}
}

func TestFrameChart(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{7: 25})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame?frame=7", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("frame chart returned wrong status code: got %v want %v\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if ctype := rr.Header().Get("Content-Type"); !strings.HasPrefix(ctype, "text/html") {
		t.Errorf("frame chart content type = %q, want text/html", ctype)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "Frame 7 (top down)") {
		t.Error("chart page should carry its title")
	}
}

func TestFrameChartDefaultsToFirstFrame(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{4: 12, 9: 15})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("frame chart returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "Frame 4 (top down)") {
		t.Error("chart should default to the first indexed frame")
	}
}

func TestFrameChartUnknownFrame(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{1: 10})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame?frame=99", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown frame: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestFrameChartBadFrameParam(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{1: 10})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame?frame=abc", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad frame param: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestFrameChartSpeedUnits(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{3: 10})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame?frame=3&units=mph", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("frame chart with units returned %v want %v", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "speed in mph") {
		t.Error("subtitle should name the requested speed units")
	}
}

func TestFrameChartBadUnitsParam(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{3: 10})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/frame?frame=3&units=knots", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad units param: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestSpeedChart(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{5: 40})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/speed?frame=5&bins=8&units=kph", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("speed chart returned wrong status code: got %v want %v\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := rr.Body.String()
	if !strings.Contains(body, "Frame 5 speed distribution") {
		t.Error("chart page should carry its title")
	}
	if !strings.Contains(body, "bins=8") {
		t.Error("subtitle should carry the requested bin count")
	}
	if !strings.Contains(body, "km/h") {
		t.Error("subtitle should name the requested speed units")
	}
}

func TestSpeedChartUnknownFrame(t *testing.T) {
	_, index := makeSequenceDir(t, map[int]int{1: 10})

	server := NewWebServer(WebServerConfig{Address: ":0", Index: index})

	req := httptest.NewRequest("GET", "/charts/speed?frame=99", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown frame: got %v want %v", rr.Code, http.StatusNotFound)
	}
}
