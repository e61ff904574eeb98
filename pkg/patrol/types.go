// Package patrol runs the robot's control loop: poll the bumpers, back off
// after a collision, steer toward the floor marker, show what the camera
// saw, repeat until asked to stop.
package patrol

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/steering"
)

// State is the loop's coarse state.
type State int

const (
	Patrolling State = iota
	Backing
	Stopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Patrolling:
		return "patrolling"
	case Backing:
		return "backing"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FrameSource yields camera frames, blocking until one is available.
type FrameSource interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// MarkerDetector finds the marker in a frame; nil means none this tick.
type MarkerDetector interface {
	Detect(frame gocv.Mat) *marker.Detection
}

// Display renders the annotated frame and reports quit requests.
// Render may draw on frame.
type Display interface {
	Render(frame *gocv.Mat, det *marker.Detection, st Status) error
	QuitRequested() bool
	Close() error
}

// Status is the per-tick snapshot handed to the display.
type Status struct {
	RunID   string
	Tick    uint64
	State   State
	Marker  *marker.BoundingBox
	Command steering.Command
	Bumped  bool
	Side    string // which bumper fired, when Bumped
	Notice  string // "skewed left" / "skewed right"
}

// Config holds the loop timing and the collision maneuver.
type Config struct {
	TickPause time.Duration // fixed pause after steering, every tick

	ReverseSpeed   float64       // cm/s while backing off
	BackupDuration time.Duration // how long to reverse before turning
	TurnDegrees    float64       // in-place rotation after backing off
	TurnRate       float64       // deg/s
	ResumeSpeed    float64       // cm/s once the turn is done
}

// DefaultConfig returns the patrol defaults.
func DefaultConfig() Config {
	return Config{
		TickPause:      50 * time.Millisecond,
		ReverseSpeed:   10,
		BackupDuration: 500 * time.Millisecond,
		TurnDegrees:    180,
		TurnRate:       100,
		ResumeSpeed:    10,
	}
}

// headless is used when no display is configured.
type headless struct{}

func (headless) Render(*gocv.Mat, *marker.Detection, Status) error { return nil }
func (headless) QuitRequested() bool                               { return false }
func (headless) Close() error                                      { return nil }
