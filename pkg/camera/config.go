// Package camera provides the frame source for the patrol loop: a capture
// device opened by index, read synchronously one frame per tick.
package camera

import "fmt"

// Config holds capture settings applied when the device is opened.
// Zero values leave the driver default untouched.
type Config struct {
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// Brightness is passed straight to the driver (device specific range).
	// Set to 0 to keep the driver default.
	Brightness float64 `json:"brightness"`
}

// Capture limits accepted by Validate.
const (
	MinWidth     = 160
	MaxWidth     = 4096
	MinHeight    = 120
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns a config that keeps whatever the device negotiates.
func DefaultConfig() Config {
	return Config{}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width != 0 && (c.Width < MinWidth || c.Width > MaxWidth) {
		errors = append(errors, fmt.Sprintf("width must be 0 (auto) or between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height != 0 && (c.Height < MinHeight || c.Height > MaxHeight) {
		errors = append(errors, fmt.Sprintf("height must be 0 (auto) or between %d and %d", MinHeight, MaxHeight))
	}
	if (c.Width == 0) != (c.Height == 0) {
		errors = append(errors, "width and height must be set together")
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 0 (auto) and %d", MaxFramerate))
	}

	return errors
}
