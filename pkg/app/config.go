// Package app wires the patrol robot together: serial base, camera, marker
// detector, steering policy, displays and the patrol loop.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/teslashibe/go-patrol/internal/config"
	"github.com/teslashibe/go-patrol/pkg/camera"
	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/patrol"
	"github.com/teslashibe/go-patrol/pkg/steering"
)

// Config holds all configuration for a patrol run.
// Flag parsing is done in cmd/patrol/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugVision enables per-frame detector traces.
	DebugVision bool

	// LogLevel is one of debug, info, warn, error. Empty means LOG_LEVEL or info.
	LogLevel string

	// Source selects the camera: 1 is the external camera, anything else the primary.
	Source int

	// Port is the serial port of the Create. Empty means PATROL_PORT or the OS default.
	Port string

	// Preset is a camera preset name (see camera.PresetNames).
	Preset string

	// Displays.
	Headless bool   // no on-screen window
	WebAddr  string // dashboard listen address, empty disables it

	// Detector and steering variants.
	Rank      string // "point-count" or "area"
	RightEdge string // "height" or "width"

	Patrol patrol.Config
}

// DefaultConfig returns the defaults for a desk-side run with a window.
func DefaultConfig() Config {
	return Config{
		Preset:    camera.PresetNative,
		Rank:      marker.RankByPointCount.String(),
		RightEdge: "height",
		Patrol:    patrol.DefaultConfig(),
	}
}

// LoadEnvConfig applies environment overrides.
// Call this after flag parsing; explicit flags win.
func (c *Config) LoadEnvConfig() {
	if c.LogLevel == "" {
		c.LogLevel = config.LogLevel("info")
	}
	if c.Port == "" {
		c.Port = os.Getenv("PATROL_PORT")
	}
}

// Validate checks the configuration before any hardware is touched.
func (c *Config) Validate() error {
	if camera.GetPreset(c.Preset) == nil {
		return &ConfigError{
			Field:   "Preset",
			Message: fmt.Sprintf("unknown camera preset %q (have %s)", c.Preset, strings.Join(camera.PresetNames(), ", ")),
		}
	}
	if _, err := marker.ParseRanking(c.Rank); err != nil {
		return &ConfigError{Field: "Rank", Message: err.Error()}
	}
	if _, err := steering.ParseEdge(c.RightEdge); err != nil {
		return &ConfigError{Field: "RightEdge", Message: err.Error()}
	}
	if c.Patrol.TickPause < 0 || c.Patrol.BackupDuration < 0 {
		return &ConfigError{Field: "Patrol", Message: "patrol durations must not be negative"}
	}
	if c.Patrol.TurnRate <= 0 {
		return &ConfigError{Field: "Patrol", Message: "patrol turn rate must be positive"}
	}
	return nil
}

// MarkerConfig returns the detector settings for this run.
func (c *Config) MarkerConfig() marker.Config {
	mc := marker.DefaultConfig()
	mc.Rank, _ = marker.ParseRanking(c.Rank)
	return mc
}

// SteeringConfig returns the steering settings for this run.
func (c *Config) SteeringConfig() steering.Config {
	sc := steering.DefaultConfig()
	sc.RightEdge, _ = steering.ParseEdge(c.RightEdge)
	return sc
}

// CameraConfig returns the capture settings of the chosen preset.
func (c *Config) CameraConfig() camera.Config {
	if p := camera.GetPreset(c.Preset); p != nil {
		return *p
	}
	return camera.DefaultConfig()
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
