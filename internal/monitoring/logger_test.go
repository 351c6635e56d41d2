package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLoggerRedirects(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("resampled %d frames", 7)
	if captured != "resampled 7 frames" {
		t.Errorf("captured %q, want %q", captured, "resampled 7 frames")
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("ping")
	if !called {
		t.Fatal("replacement logger was not called")
	}

	called = false
	SetLogger(nil)
	// Must not panic and must not reach the previous logger
	Logf("ping")
	if called {
		t.Error("nil logger should mute output, not forward it")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must have a default")
	}
}
