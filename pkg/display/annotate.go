// Package display shows what the robot saw each tick: the camera frame with
// the detected marker drawn on it, on screen or on the web dashboard.
package display

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/marker"
)

// Overlay colors.
var (
	BoxColor     = color.RGBA{G: 255, A: 255}
	ContourColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws det onto frame: the contour filled in white, then its
// bounding box in green. A nil det leaves the frame untouched. Drawing the
// same detection twice gives the same pixels.
func Annotate(frame *gocv.Mat, det *marker.Detection) {
	if det == nil || frame == nil || frame.Empty() {
		return
	}
	if len(det.Contour) > 0 {
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{det.Contour})
		gocv.DrawContours(frame, pv, -1, ContourColor, -1)
		pv.Close()
	}
	gocv.Rectangle(frame, det.Box.Rect(), BoxColor, 1)
}
