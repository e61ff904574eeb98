package marker

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

// Blur grows a region by about a pixel; allow a little more.
const boxTolerance = 4

var (
	blue  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	green = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	red   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// blankFrame creates a black 640x480 BGR frame
func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}

// fillRect paints a solid rectangle covering r (inclusive of r.Max)
func fillRect(m *gocv.Mat, r image.Rectangle, c color.RGBA) {
	gocv.Rectangle(m, r, c, -1)
}

func near(a, b int) bool {
	d := a - b
	return d >= -boxTolerance && d <= boxTolerance
}

func assertBoxNear(t *testing.T, got BoundingBox, want image.Rectangle) {
	t.Helper()
	// OpenCV fills both corners, so the painted region is one pixel wider than Dx.
	if !near(got.X, want.Min.X) || !near(got.Y, want.Min.Y) ||
		!near(got.Width, want.Dx()+1) || !near(got.Height, want.Dy()+1) {
		t.Errorf("box: got %v, want about %v", got, BoxFromRect(want))
	}
}

func TestDetect_NoTargetColor(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	fillRect(&frame, image.Rect(50, 50, 250, 200), green)
	fillRect(&frame, image.Rect(350, 250, 550, 400), red)

	d := NewDetector(DefaultConfig())
	if det := d.Detect(frame); det != nil {
		t.Errorf("expected no marker, got %+v", det.Box)
	}
}

func TestDetect_BlankFrame(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()

	if det := NewDetector(DefaultConfig()).Detect(frame); det != nil {
		t.Errorf("expected no marker in black frame, got %+v", det.Box)
	}
}

func TestDetect_EmptyAndMalformedFrames(t *testing.T) {
	d := NewDetector(DefaultConfig())

	empty := gocv.NewMat()
	defer empty.Close()
	if det := d.Detect(empty); det != nil {
		t.Error("empty Mat should yield no marker")
	}

	grey := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer grey.Close()
	if det := d.Detect(grey); det != nil {
		t.Error("single channel Mat should yield no marker")
	}
}

func TestDetect_SingleRegion(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	want := image.Rect(200, 150, 320, 230)
	fillRect(&frame, want, blue)

	det := NewDetector(DefaultConfig()).Detect(frame)
	if det == nil {
		t.Fatal("expected a marker")
	}
	assertBoxNear(t, det.Box, want)
	if det.Points < 100 {
		t.Errorf("points: got %d, want >= 100", det.Points)
	}
	if len(det.Contour) != det.Points {
		t.Errorf("contour length %d != points %d", len(det.Contour), det.Points)
	}
}

func TestDetect_SmallRegionIsNoise(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	fillRect(&frame, image.Rect(300, 200, 310, 210), blue)

	if det := NewDetector(DefaultConfig()).Detect(frame); det != nil {
		t.Errorf("10px square should be discarded as noise, got %+v (points=%d)", det.Box, det.Points)
	}
}

func TestDetect_MultipleRegionsPicksMostPoints(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	large := image.Rect(40, 40, 240, 160)
	small := image.Rect(420, 300, 500, 360)
	fillRect(&frame, small, blue)
	fillRect(&frame, large, blue)

	det := NewDetector(DefaultConfig()).Detect(frame)
	if det == nil {
		t.Fatal("expected a marker")
	}
	assertBoxNear(t, det.Box, large)
}

func TestDetect_Ranking(t *testing.T) {
	// A long thin stripe has many boundary points but little area;
	// the square has fewer points but more area.
	stripe := image.Rect(20, 420, 600, 424)
	square := image.Rect(250, 100, 350, 200)

	tests := []struct {
		name string
		rank Ranking
		want image.Rectangle
	}{
		{"point count prefers stripe", RankByPointCount, stripe},
		{"area prefers square", RankByArea, square},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame := blankFrame()
			defer frame.Close()
			fillRect(&frame, stripe, blue)
			fillRect(&frame, square, blue)

			cfg := DefaultConfig()
			cfg.Rank = tc.rank
			det := NewDetector(cfg).Detect(frame)
			if det == nil {
				t.Fatal("expected a marker")
			}
			assertBoxNear(t, det.Box, tc.want)
		})
	}
}

func TestDetect_DoesNotModifyFrame(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	fillRect(&frame, image.Rect(200, 150, 320, 230), blue)
	before := frame.Clone()
	defer before.Close()

	NewDetector(DefaultConfig()).Detect(frame)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, before, &diff)
	grey := gocv.NewMat()
	defer grey.Close()
	gocv.CvtColor(diff, &grey, gocv.ColorBGRToGray)
	if n := gocv.CountNonZero(grey); n != 0 {
		t.Errorf("Detect modified %d pixels of the input frame", n)
	}
}
