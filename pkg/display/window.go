package display

import (
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/patrol"
)

// WindowTitle is the title of the on-screen debug window.
const WindowTitle = "Window"

// QuitKey closes the window and ends the patrol.
const QuitKey = 'q'

// Window shows annotated frames in a desktop window.
type Window struct {
	win  *gocv.Window
	quit bool
}

// NewWindow opens the debug window. It needs a desktop session.
func NewWindow() *Window {
	return &Window{win: gocv.NewWindow(WindowTitle)}
}

// Render annotates the frame and shows it, then polls the keyboard for 1ms.
func (w *Window) Render(frame *gocv.Mat, det *marker.Detection, st patrol.Status) error {
	Annotate(frame, det)
	w.win.IMShow(*frame)
	if w.win.WaitKey(1)&0xFF == QuitKey {
		w.quit = true
	}
	return nil
}

// QuitRequested reports whether the quit key was pressed.
func (w *Window) QuitRequested() bool {
	return w.quit
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
