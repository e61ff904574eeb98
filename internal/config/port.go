// Package config provides environment and platform helpers for go-patrol commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrUnknownOS is returned when no serial port default exists for the host OS.
var ErrUnknownOS = errors.New("config: could not determine operating system")

// Default serial port paths for the Create's USB-serial adapter.
const (
	DarwinPort  = "/dev/tty.KeySerial1"
	LinuxPort   = "/dev/ttyUSB0"
	WindowsPort = "COM3"
)

// Camera indices selectable with --source.
const (
	PrimaryCamera  = 0
	ExternalCamera = 1
)

// PortPath returns the default serial port path for the given GOOS.
func PortPath(goos string) (string, error) {
	switch goos {
	case "darwin":
		return DarwinPort, nil
	case "linux":
		return LinuxPort, nil
	case "windows":
		return WindowsPort, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOS, goos)
	}
}

// ResolvePort picks the serial port: explicit flag, then PATROL_PORT env var,
// then the platform default for this host.
func ResolvePort(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if p := os.Getenv("PATROL_PORT"); p != "" {
		return p, nil
	}
	return PortPath(runtime.GOOS)
}

// CameraIndex maps the --source flag to a capture device index.
// Only 1 selects the external camera; every other value falls back to the primary.
func CameraIndex(source int) int {
	if source == ExternalCamera {
		return ExternalCamera
	}
	return PrimaryCamera
}

// LogLevel returns the log level from LOG_LEVEL, or def if unset.
func LogLevel(def string) string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return def
}
