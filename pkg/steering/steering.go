// Package steering turns a marker's position in the frame into a drive command.
package steering

import (
	"fmt"

	"github.com/teslashibe/go-patrol/pkg/marker"
)

// Skew is the marker's lateral offset class.
type Skew int

const (
	Centered Skew = iota
	SkewedLeft
	SkewedRight
)

// String implements fmt.Stringer.
func (s Skew) String() string {
	switch s {
	case Centered:
		return "centered"
	case SkewedLeft:
		return "skewed left"
	case SkewedRight:
		return "skewed right"
	default:
		return fmt.Sprintf("Skew(%d)", int(s))
	}
}

// MarshalText renders the skew by name in JSON status snapshots.
func (s Skew) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Edge selects which box dimension closes the right gap.
type Edge int

const (
	// EdgeFromHeight measures the right edge as x + height. This is what the
	// robot has always done and the sensitivity was tuned with it.
	EdgeFromHeight Edge = iota

	// EdgeFromWidth measures the right edge as x + width.
	EdgeFromWidth
)

// ParseEdge parses "height" or "width".
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "height", "":
		return EdgeFromHeight, nil
	case "width":
		return EdgeFromWidth, nil
	default:
		return 0, fmt.Errorf("steering: unknown right edge %q", s)
	}
}

// Command is a drive request: forward speed in cm/s, turn rate in deg/s
// (positive turns left).
type Command struct {
	ForwardSpeed float64 `json:"forward_speed"`
	TurnRate     float64 `json:"turn_rate"`
	Skew         Skew    `json:"skew"`
}

// Config holds the policy's tunables.
type Config struct {
	Sensitivity  int     // px the marker may drift before correcting
	ForwardSpeed float64 // cm/s
	TurnRate     float64 // deg/s magnitude of a correction
	RightEdge    Edge
}

// DefaultConfig returns the patrol defaults.
func DefaultConfig() Config {
	return Config{
		Sensitivity:  150,
		ForwardSpeed: 10,
		TurnRate:     10,
		RightEdge:    EdgeFromHeight,
	}
}

// Policy computes steering corrections. It is stateless.
type Policy struct {
	config Config
}

// New creates a policy.
func New(cfg Config) *Policy {
	return &Policy{config: cfg}
}

// Config returns the policy configuration.
func (p *Policy) Config() Config {
	return p.config
}

// Gaps returns the free space left and right of the box.
func (p *Policy) Gaps(box marker.BoundingBox, frameWidth int) (left, right int) {
	edge := box.Height
	if p.config.RightEdge == EdgeFromWidth {
		edge = box.Width
	}
	return box.X, frameWidth - (box.X + edge)
}

// Steer returns the command for a marker at box in a frame frameWidth pixels wide.
func (p *Policy) Steer(box marker.BoundingBox, frameWidth int) Command {
	return p.Decide(p.Gaps(box, frameWidth))
}

// Decide applies the skew rule to precomputed gaps.
func (p *Policy) Decide(leftGap, rightGap int) Command {
	s := p.config.Sensitivity
	switch {
	case leftGap+s < rightGap:
		return Command{ForwardSpeed: p.config.ForwardSpeed, TurnRate: p.config.TurnRate, Skew: SkewedLeft}
	case leftGap-s > rightGap:
		return Command{ForwardSpeed: p.config.ForwardSpeed, TurnRate: -p.config.TurnRate, Skew: SkewedRight}
	default:
		return p.Straight()
	}
}

// Straight returns the command used when no correction is needed or no
// marker was seen.
func (p *Policy) Straight() Command {
	return Command{ForwardSpeed: p.config.ForwardSpeed, Skew: Centered}
}
