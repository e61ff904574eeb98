// Package marker finds the colored path marker in a camera frame.
package marker

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// BoundingBox is the axis-aligned rectangle enclosing a marker, in pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoxFromRect converts an image.Rectangle into a BoundingBox.
func BoxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// String implements fmt.Stringer.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Detection is the marker found in a single frame.
type Detection struct {
	Box     BoundingBox
	Contour []image.Point // boundary points, kept for the debug overlay
	Points  int           // boundary point count
	Area    float64       // contour area in px²
}

// Ranking selects which contour counts as "largest".
type Ranking int

const (
	// RankByPointCount ranks contours by boundary point count. It tracks
	// perimeter complexity rather than area but matches the behavior the
	// steering thresholds were tuned against.
	RankByPointCount Ranking = iota

	// RankByArea ranks contours by enclosed area.
	RankByArea
)

// String implements fmt.Stringer.
func (r Ranking) String() string {
	switch r {
	case RankByPointCount:
		return "point-count"
	case RankByArea:
		return "area"
	default:
		return fmt.Sprintf("Ranking(%d)", int(r))
	}
}

// ParseRanking parses the names produced by Ranking.String.
func ParseRanking(s string) (Ranking, error) {
	switch s {
	case "point-count", "points", "":
		return RankByPointCount, nil
	case "area":
		return RankByArea, nil
	default:
		return 0, fmt.Errorf("marker: unknown ranking %q", s)
	}
}

// HSV is a color in OpenCV's 8-bit HSV scale (H 0-180, S and V 0-255).
type HSV struct {
	H, S, V float64
}

func (c HSV) scalar() gocv.Scalar {
	return gocv.NewScalar(c.H, c.S, c.V, 0)
}

// Config holds the segmentation parameters.
type Config struct {
	BlurKernel int     // Gaussian kernel size (odd)
	Lower      HSV     // Inclusive lower bound of the target color
	Upper      HSV     // Inclusive upper bound of the target color
	MinPoints  int     // Contours with fewer boundary points are noise
	Rank       Ranking // How the largest contour is chosen
}

// DefaultConfig returns the settings tuned for the blue floor marker.
func DefaultConfig() Config {
	return Config{
		BlurKernel: 9,
		Lower:      HSV{H: 90, S: 80, V: 50},
		Upper:      HSV{H: 130, S: 255, V: 255},
		MinPoints:  100,
		Rank:       RankByPointCount,
	}
}

// Validate checks the config for values the pipeline cannot use.
func (c Config) Validate() error {
	if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("marker: blur kernel must be odd and positive, got %d", c.BlurKernel)
	}
	if c.Lower.H > c.Upper.H || c.Lower.S > c.Upper.S || c.Lower.V > c.Upper.V {
		return fmt.Errorf("marker: lower bound %+v exceeds upper bound %+v", c.Lower, c.Upper)
	}
	if c.MinPoints < 0 {
		return fmt.Errorf("marker: min points must be >= 0, got %d", c.MinPoints)
	}
	return nil
}
