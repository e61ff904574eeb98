package display

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/patrol"
)

// Multi fans every call out to several displays. Any of them can ask to quit.
type Multi []patrol.Display

// Render renders on every display, stopping at the first error.
func (m Multi) Render(frame *gocv.Mat, det *marker.Detection, st patrol.Status) error {
	for _, d := range m {
		if err := d.Render(frame, det, st); err != nil {
			return err
		}
	}
	return nil
}

// QuitRequested reports whether any display wants to quit.
func (m Multi) QuitRequested() bool {
	for _, d := range m {
		if d.QuitRequested() {
			return true
		}
	}
	return false
}

// Close closes every display and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, d := range m {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ patrol.Display = (*Window)(nil)
	_ patrol.Display = (*Web)(nil)
	_ patrol.Display = Multi(nil)
)
