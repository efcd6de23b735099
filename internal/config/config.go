// Package config handles thumbnailer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/stlthumb/internal/logger"
)

// Render backends.
const (
	BackendOpenGL   = "opengl"
	BackendSoftware = "software"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all thumbnailer settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RenderConfig holds output image and backend settings.
type RenderConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Visible bool   `yaml:"visible"` // Show the result in a window after rendering
	Backend string `yaml:"backend"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile is the node exporter textfile collector path. Empty disables export.
	Textfile string `yaml:"textfile"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:   1024,
			Height:  768,
			Visible: false,
			Backend: BackendOpenGL,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings that would otherwise fail deep inside the
// renderer.
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: image size must be positive, got %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	}
	switch c.Render.Backend {
	case BackendOpenGL, BackendSoftware:
	default:
		return fmt.Errorf("%w: unknown backend %q (want %q or %q)", ErrInvalid, c.Render.Backend, BackendOpenGL, BackendSoftware)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
