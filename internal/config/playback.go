// Package config loads optional JSON playback configuration. The schema
// mirrors the plyplay flags so one file can stand in for a command line;
// flags explicitly set still win over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PlaybackConfig represents a playback configuration file. All fields are
// pointers so a partial file only overrides what it names.
type PlaybackConfig struct {
	Dir         *string  `json:"dir,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
	Loop        *bool    `json:"loop,omitempty"`
	CacheSize   *int     `json:"cache_size,omitempty"`
	Listen      *string  `json:"listen,omitempty"`
	DB          *string  `json:"db,omitempty"`
	LogInterval *string  `json:"log_interval,omitempty"` // duration string like "2s"
}

// EmptyPlaybackConfig returns a PlaybackConfig with all fields unset.
func EmptyPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{}
}

// LoadPlaybackConfig loads a PlaybackConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the file keep their defaults, so
// partial configs are safe.
func LoadPlaybackConfig(path string) (*PlaybackConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlaybackConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *PlaybackConfig) Validate() error {
	if c.FPS != nil {
		if *c.FPS <= 0 || *c.FPS > 240 {
			return fmt.Errorf("fps must be greater than 0 and at most 240, got %g", *c.FPS)
		}
	}

	if c.CacheSize != nil {
		if *c.CacheSize <= 0 {
			return fmt.Errorf("cache_size must be positive, got %d", *c.CacheSize)
		}
	}

	// Validate LogInterval can be parsed if set
	if c.LogInterval != nil && *c.LogInterval != "" {
		if _, err := time.ParseDuration(*c.LogInterval); err != nil {
			return fmt.Errorf("invalid log_interval '%s': %w", *c.LogInterval, err)
		}
	}

	return nil
}

// GetDir returns the frame directory or empty when unset.
func (c *PlaybackConfig) GetDir() string {
	if c.Dir == nil {
		return ""
	}
	return *c.Dir
}

// GetFPS returns the fps value or the default.
func (c *PlaybackConfig) GetFPS() float64 {
	if c.FPS == nil {
		return 30 // default
	}
	return *c.FPS
}

// GetLoop returns the loop value or the default.
func (c *PlaybackConfig) GetLoop() bool {
	if c.Loop == nil {
		return false // default: stop after the last frame
	}
	return *c.Loop
}

// GetCacheSize returns the cache_size value or the default.
func (c *PlaybackConfig) GetCacheSize() int {
	if c.CacheSize == nil {
		return 10 // default
	}
	return *c.CacheSize
}

// GetListen returns the listen address or empty when unset.
func (c *PlaybackConfig) GetListen() string {
	if c.Listen == nil {
		return ""
	}
	return *c.Listen
}

// GetDB returns the catalog database path or empty when unset.
func (c *PlaybackConfig) GetDB() string {
	if c.DB == nil {
		return ""
	}
	return *c.DB
}

// GetLogInterval parses and returns the LogInterval as a time.Duration.
func (c *PlaybackConfig) GetLogInterval() time.Duration {
	if c.LogInterval == nil || *c.LogInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.LogInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}
