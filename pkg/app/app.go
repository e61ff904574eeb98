package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/go-patrol/internal/config"
	"github.com/teslashibe/go-patrol/internal/log"
	"github.com/teslashibe/go-patrol/pkg/camera"
	"github.com/teslashibe/go-patrol/pkg/debug"
	"github.com/teslashibe/go-patrol/pkg/display"
	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/patrol"
	"github.com/teslashibe/go-patrol/pkg/robot"
	"github.com/teslashibe/go-patrol/pkg/steering"
	"github.com/teslashibe/go-patrol/pkg/web"
)

// Hardware opens the devices a run needs. Tests replace it.
type Hardware interface {
	OpenBase(port string) (robot.Base, error)
	OpenCamera(index int, cfg camera.Config) (patrol.FrameSource, error)
}

// Devices opens the real Create and camera.
type Devices struct{}

// OpenBase connects to a Create on port.
func (Devices) OpenBase(port string) (robot.Base, error) {
	c, err := robot.Open(port)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// OpenCamera opens a gocv capture device.
func (Devices) OpenCamera(index int, cfg camera.Config) (patrol.FrameSource, error) {
	src, err := camera.Open(index, cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// App is the patrol application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	hw     Hardware
	runID  string
	log    *slog.Logger

	base      robot.Base
	frames    patrol.FrameSource
	webServer *web.Server
	displays  display.Multi
	loop      *patrol.Loop
}

// New creates a patrol application with the given configuration.
func New(cfg Config) (*App, error) {
	return NewWithHardware(cfg, Devices{})
}

// NewWithHardware is New with the device openers replaced.
func NewWithHardware(cfg Config, hw Hardware) (*App, error) {
	// Apply environment overrides
	cfg.LoadEnvConfig()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Vision = cfg.DebugVision

	runID := uuid.NewString()
	return &App{
		config: cfg,
		hw:     hw,
		runID:  runID,
		log:    log.Component("app").With("run", runID),
	}, nil
}

// RunID identifies this run in logs and on the dashboard.
func (a *App) RunID() string {
	return a.runID
}

// Init opens the hardware and builds the loop.
// Call this after New() and before Run(). On error nothing is left open.
func (a *App) Init() (err error) {
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	port, err := config.ResolvePort(a.config.Port)
	if err != nil {
		return err
	}

	a.log.Info("connecting to base", "port", port)
	if a.base, err = a.hw.OpenBase(port); err != nil {
		return fmt.Errorf("base: %w", err)
	}

	index := config.CameraIndex(a.config.Source)
	camCfg := a.config.CameraConfig()
	a.log.Info("opening camera", "index", index, "preset", a.config.Preset,
		"width", camCfg.Width, "height", camCfg.Height)
	if a.frames, err = a.hw.OpenCamera(index, camCfg); err != nil {
		return fmt.Errorf("camera: %w", err)
	}

	if !a.config.Headless {
		a.displays = append(a.displays, display.NewWindow())
	}
	if a.config.WebAddr != "" {
		a.webServer = web.NewServer(a.config.WebAddr)
		a.displays = append(a.displays, display.NewWeb(a.webServer))
	}

	mc := a.config.MarkerConfig()
	sc := a.config.SteeringConfig()
	a.log.Info("patrol configured",
		"rank", mc.Rank.String(),
		"min_points", mc.MinPoints,
		"sensitivity", sc.Sensitivity,
		"right_edge", a.config.RightEdge,
		"displays", len(a.displays))

	var disp patrol.Display
	if len(a.displays) > 0 {
		disp = a.displays
	}
	a.loop = patrol.New(a.config.Patrol, a.runID, patrol.Deps{
		Base:     a.base,
		Frames:   a.frames,
		Detector: marker.NewDetector(mc),
		Policy:   steering.New(sc),
		Display:  disp,
	})
	return nil
}

// Run patrols until quit, cancellation, or an I/O fault.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("app: Run called before Init")
	}
	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
		a.webServer.AddLog("info", "patrol started, run "+a.runID)
	}
	return a.loop.Run(ctx)
}

// Shutdown stops the base and releases every device. Safe to call twice.
func (a *App) Shutdown() error {
	var errs []error
	if a.loop != nil {
		if err := a.loop.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeBase(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release undoes a partial Init.
func (a *App) release() {
	if a.frames != nil {
		a.frames.Close()
		a.frames = nil
	}
	if a.displays != nil {
		a.displays.Close()
		a.displays = nil
	}
	a.closeBase()
}

func (a *App) closeBase() error {
	if a.base == nil {
		return nil
	}
	base := a.base
	a.base = nil
	if c, ok := base.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
