package display

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/pkg/debug"
	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/patrol"
	"github.com/teslashibe/go-patrol/pkg/web"
)

// Web streams annotated frames and status to the dashboard. A stop from the
// dashboard counts as a quit request.
type Web struct {
	srv *web.Server
}

// NewWeb wraps a dashboard server. The caller starts the server.
func NewWeb(srv *web.Server) *Web {
	return &Web{srv: srv}
}

// Render publishes the status, any notices, and the annotated frame as JPEG.
func (w *Web) Render(frame *gocv.Mat, det *marker.Detection, st patrol.Status) error {
	w.srv.UpdateState(web.Snapshot{
		RunID:   st.RunID,
		State:   st.State.String(),
		Tick:    st.Tick,
		Marker:  st.Marker,
		Command: st.Command,
		Bumped:  st.Bumped,
	})
	if st.Bumped {
		w.srv.AddLog("bump", fmt.Sprintf("tick %d: %s bumper, backed off", st.Tick, st.Side))
	}
	if st.Notice != "" {
		w.srv.AddLog("skew", fmt.Sprintf("tick %d: %s", st.Tick, st.Notice))
	}

	Annotate(frame, det)
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The hub holds on to the bytes after buf is freed.
	data := append([]byte(nil), buf.GetBytes()...)
	w.srv.SendCameraFrame(data)
	debug.Log("dashboard frame", "tick", st.Tick, "bytes", len(data))
	return nil
}

// QuitRequested reports whether a dashboard client pressed stop.
func (w *Web) QuitRequested() bool {
	return w.srv.StopRequested()
}

// Close shuts the dashboard down.
func (w *Web) Close() error {
	return w.srv.Shutdown()
}
