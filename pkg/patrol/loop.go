package patrol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-patrol/internal/log"
	"github.com/teslashibe/go-patrol/pkg/robot"
	"github.com/teslashibe/go-patrol/pkg/steering"
)

// Deps are the collaborators the loop drives. Display may be nil.
type Deps struct {
	Base     robot.Base
	Frames   FrameSource
	Detector MarkerDetector
	Policy   *steering.Policy
	Display  Display
}

// Loop owns everything that outlives a tick: the hardware, the capture
// source, the display and the tick counter. It is not safe for concurrent use.
type Loop struct {
	config Config
	runID  string
	log    *slog.Logger

	base     robot.Base
	frames   FrameSource
	detector MarkerDetector
	policy   *steering.Policy
	display  Display

	state State
	tick  uint64
	frame gocv.Mat

	pause func(context.Context, time.Duration) error

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a loop. runID tags every log line of this run.
func New(cfg Config, runID string, deps Deps) *Loop {
	display := deps.Display
	if display == nil {
		display = headless{}
	}
	policy := deps.Policy
	if policy == nil {
		policy = steering.New(steering.DefaultConfig())
	}
	return &Loop{
		config:   cfg,
		runID:    runID,
		log:      log.Component("patrol").With("run", runID),
		base:     deps.Base,
		frames:   deps.Frames,
		detector: deps.Detector,
		policy:   policy,
		display:  display,
		frame:    gocv.NewMat(),
		pause:    sleepCtx,
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return l.state
}

// Ticks returns the number of ticks started so far.
func (l *Loop) Ticks() uint64 {
	return l.tick
}

// Run ticks until the display asks to quit, ctx is cancelled, or an I/O
// call fails. The hardware is stopped and the camera released on every exit
// path. Quitting is not an error.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if serr := l.Shutdown(); err == nil {
			err = serr
		}
	}()

	l.log.Info("patrol started")
	for {
		if ctx.Err() != nil {
			l.log.Info("interrupted")
			return nil
		}
		quit, err := l.Tick(ctx)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// Tick runs one iteration: sensor poll, collision handling, frame
// acquisition, detection, steering, pause, overlay render, exit check.
func (l *Loop) Tick(ctx context.Context) (quit bool, err error) {
	l.tick++
	st := Status{RunID: l.runID, Tick: l.tick}

	bumps, err := l.base.Bumpers()
	if err != nil {
		return false, fmt.Errorf("tick %d: read bumpers: %w", l.tick, err)
	}
	if bumps.Any() {
		st.Bumped, st.Side = true, bumps.Side()
		if err := l.backOff(ctx, bumps); err != nil {
			return false, fmt.Errorf("tick %d: collision recovery: %w", l.tick, err)
		}
	}

	if err := l.frames.Read(&l.frame); err != nil {
		return false, fmt.Errorf("tick %d: read frame: %w", l.tick, err)
	}
	l.log.Info("frame", "n", l.tick)

	cmd := l.policy.Straight()
	det := l.detector.Detect(l.frame)
	if det != nil {
		box := det.Box
		st.Marker = &box
		cmd = l.policy.Steer(box, l.frame.Cols())
	}
	if cmd.Skew != steering.Centered {
		st.Notice = cmd.Skew.String()
		l.log.Info(st.Notice, "box", st.Marker, "turn", cmd.TurnRate)
	}
	if err := l.base.Drive(cmd.ForwardSpeed, cmd.TurnRate); err != nil {
		return false, fmt.Errorf("tick %d: drive: %w", l.tick, err)
	}
	st.Command = cmd

	if err := l.pause(ctx, l.config.TickPause); err != nil {
		return true, nil
	}

	st.State = l.state
	if err := l.display.Render(&l.frame, det, st); err != nil {
		return false, fmt.Errorf("tick %d: render: %w", l.tick, err)
	}
	if l.display.QuitRequested() {
		l.log.Info("quit requested")
		return true, nil
	}
	return false, nil
}

// backOff runs the fixed collision maneuver: stop, reverse, stop, turn
// around, drive on. Both bumpers get the same response.
func (l *Loop) backOff(ctx context.Context, bumps robot.Bumpers) error {
	l.state = Backing
	defer func() { l.state = Patrolling }()
	l.log.Warn("bump", "side", bumps.Side())

	if err := l.base.Stop(); err != nil {
		return err
	}
	if err := l.base.Drive(-l.config.ReverseSpeed, 0); err != nil {
		return err
	}
	// Cancellation only shortens the reverse; the maneuver always finishes.
	l.pause(ctx, l.config.BackupDuration)
	if err := l.base.Stop(); err != nil {
		return err
	}
	if err := l.base.TurnInPlace(l.config.TurnDegrees, l.config.TurnRate); err != nil {
		return err
	}
	return l.base.Drive(l.config.ResumeSpeed, 0)
}

// Shutdown stops the base and releases the camera and display. Only the
// first call does anything; later calls return the same result.
func (l *Loop) Shutdown() error {
	l.shutdownOnce.Do(func() {
		l.state = Stopped

		var errs []error
		if err := l.base.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop base: %w", err))
		}
		if err := l.frames.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release camera: %w", err))
		}
		if err := l.display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
		l.frame.Close()

		l.shutdownErr = errors.Join(errs...)
		l.log.Info("patrol stopped", "ticks", l.tick)
	})
	return l.shutdownErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
