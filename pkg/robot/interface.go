// Package robot provides interfaces and implementations for driving a
// differential-drive base with front bump sensors.
//
// Like the rest of go-patrol, consumers depend only on the small interface
// they need: the patrol loop wants a Base, a test harness may only need a
// Driver.
package robot

// Bumpers is one sample of the front bump sensors.
type Bumpers struct {
	Left  bool
	Right bool
}

// Any reports whether either bumper is pressed.
func (b Bumpers) Any() bool {
	return b.Left || b.Right
}

// Side names the bumper(s) pressed, for logging.
func (b Bumpers) Side() string {
	switch {
	case b.Left && b.Right:
		return "both"
	case b.Left:
		return "left"
	case b.Right:
		return "right"
	default:
		return "none"
	}
}

// BumpSensor reads the front bump sensors.
type BumpSensor interface {
	Bumpers() (Bumpers, error)
}

// Driver issues continuous drive commands.
// Speed is in cm/s, turn rate in deg/s (positive turns left).
type Driver interface {
	Drive(speed, turnRate float64) error
	Stop() error
}

// Turner performs a timed in-place rotation.
// It blocks until the rotation has finished and the base is stopped.
type Turner interface {
	TurnInPlace(degrees, rate float64) error
}

// Base is the composite interface for full base control.
type Base interface {
	BumpSensor
	Driver
	Turner
}

// Ensure Create implements Base
var _ Base = (*Create)(nil)
