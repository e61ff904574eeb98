package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/internal/log"
)

// ErrEndOfStream is returned when the device stops producing frames.
var ErrEndOfStream = errors.New("camera: end of stream")

// Source is a capture device read one frame at a time.
// It is not safe for concurrent use; the patrol loop owns it.
type Source struct {
	index  int
	cap    *gocv.VideoCapture
	closed bool
}

// Open opens the capture device with the given index and applies cfg.
func Open(index int, cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not available", index)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	if cfg.Brightness != 0 {
		vc.Set(gocv.VideoCaptureBrightness, cfg.Brightness)
	}

	log.Component("camera").Info("opened",
		"index", index,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)))

	return &Source{index: index, cap: vc}, nil
}

// Read blocks until the next frame is available and decodes it into dst.
func (s *Source) Read(dst *gocv.Mat) error {
	if s.closed {
		return fmt.Errorf("camera %d: %w", s.index, ErrEndOfStream)
	}
	if ok := s.cap.Read(dst); !ok || dst.Empty() {
		return fmt.Errorf("camera %d: %w", s.index, ErrEndOfStream)
	}
	return nil
}

// Close releases the device. Further reads return ErrEndOfStream.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cap.Close()
}
