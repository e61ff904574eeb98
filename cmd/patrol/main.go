// Patrol - follow a blue floor marker with an iRobot Create
// Reads the bumpers, backs off after collisions and steers toward the marker
// seen by the camera until q is pressed or the process is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-patrol/internal/config"
	"github.com/teslashibe/go-patrol/internal/log"
	"github.com/teslashibe/go-patrol/pkg/app"
	"github.com/teslashibe/go-patrol/pkg/camera"
)

func main() {
	cfg := parseFlags()
	cfg.LoadEnvConfig()
	log.Init(cfg.LogLevel)

	fmt.Println("🤖 Patrol - marker following for the iRobot Create")
	fmt.Println("===================================================")

	a, err := app.New(cfg)
	if err != nil {
		fatal("❌ Configuration error", err)
	}
	if cfg.Debug {
		fmt.Println("🐛 Debug mode enabled")
	}
	log.Info("run", "id", a.RunID())

	if err := a.Init(); err != nil {
		if errors.Is(err, config.ErrUnknownOS) {
			fatal("❌ No serial port for this OS, use --port or PATROL_PORT", err)
		}
		fatal("❌ Initialization failed", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Headless {
		fmt.Println("🚗 Patrolling (Ctrl+C to stop)")
	} else {
		fmt.Println("🚗 Patrolling (press q in the window or Ctrl+C to stop)")
	}
	if cfg.WebAddr != "" {
		fmt.Printf("🌐 Dashboard on %s\n", cfg.WebAddr)
	}

	runErr := a.Run(ctx)
	if err := a.Shutdown(); err != nil {
		log.Warn("shutdown", "err", err)
	}
	if runErr != nil {
		fatal("❌ Runtime error", runErr)
	}
	fmt.Println("👋 Goodbye!")
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	source := flag.Int("source", 0, "Camera source: 1 for the external camera, anything else for the built-in one")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugVision := flag.Bool("debug-vision", false, "Trace every detector pass (very verbose)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL env var)")
	port := flag.String("port", "", "Serial port of the Create (overrides PATROL_PORT env var)")
	headless := flag.Bool("headless", false, "Run without the on-screen window")
	webAddr := flag.String("web", "", "Serve the dashboard on this address, e.g. :8181")
	preset := flag.String("preset", cfg.Preset, "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	rank := flag.String("rank", cfg.Rank, "Marker ranking: point-count or area")
	rightEdge := flag.String("right-edge", cfg.RightEdge, "Right edge of the marker box: height or width")

	flag.Parse()

	cfg.Source, cfg.Port, cfg.Headless, cfg.WebAddr = *source, *port, *headless, *webAddr
	cfg.Debug, cfg.DebugVision = *debugFlag, *debugVision
	cfg.Preset, cfg.Rank, cfg.RightEdge = *preset, *rank, *rightEdge
	cfg.LogLevel = *logLevel
	if cfg.Debug && cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func fatal(msg string, err error) {
	log.Error(msg, "err", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
