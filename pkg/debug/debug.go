// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-patrol/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Vision controls whether per-contour vision traces are shown.
// Use --debug-vision to enable these very verbose logs
var Vision bool

// Log emits a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// VisionLog emits a record only if vision tracing is enabled
func VisionLog(msg string, args ...any) {
	if Vision {
		log.Component("vision").Info(msg, args...)
	}
}
