package marker

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/debug"
)

// Detector runs the color segmentation pipeline on BGR frames.
// It holds no per-frame state, so one Detector can serve every tick.
type Detector struct {
	config Config
}

// NewDetector creates a detector. The config is assumed valid; see Config.Validate.
func NewDetector(cfg Config) *Detector {
	return &Detector{config: cfg}
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect returns the marker in frame, or nil when nothing qualifies.
// An empty frame is not an error: it simply has no marker.
func (d *Detector) Detect(frame gocv.Mat) *Detection {
	if frame.Empty() || frame.Channels() != 3 {
		return nil
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := d.config.BlurKernel
	gocv.GaussianBlur(frame, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, d.config.Lower.scalar(), d.config.Upper.scalar(), &mask)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAndWithMask(blurred, blurred, &masked, mask)

	grey := gocv.NewMat()
	defer grey.Close()
	gocv.CvtColor(masked, &grey, gocv.ColorBGRToGray)

	// Any surviving color becomes full white.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(grey, &binary, 0, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(binary, gocv.RetrievalTree, gocv.ChainApproxNone)
	defer contours.Close()

	best := d.largest(contours)
	if best < 0 {
		return nil
	}

	contour := contours.At(best)
	points := contour.Size()
	if points < d.config.MinPoints {
		debug.VisionLog("largest contour discarded as noise", "points", points, "min", d.config.MinPoints)
		return nil
	}

	det := &Detection{
		Box:     BoxFromRect(gocv.BoundingRect(contour)),
		Contour: contour.ToPoints(),
		Points:  points,
		Area:    gocv.ContourArea(contour),
	}
	debug.VisionLog("marker", "box", det.Box, "points", det.Points, "area", det.Area, "contours", contours.Size())
	return det
}

// largest returns the index of the top-ranked contour, or -1 if there are none.
// Ties keep the earliest contour.
func (d *Detector) largest(contours gocv.PointsVector) int {
	best, bestScore := -1, -1.0
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		var score float64
		switch d.config.Rank {
		case RankByArea:
			score = gocv.ContourArea(c)
		default:
			score = float64(c.Size())
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
