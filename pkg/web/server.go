// Package web provides a live dashboard for a patrolling robot: the
// annotated camera feed, the per-tick status and recent log lines, plus a
// remote stop button for robots running without a screen.
package web

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-patrol/internal/log"
	"github.com/teslashibe/go-patrol/pkg/hub"
	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/steering"
)

// maxLogs bounds the in-memory log buffer.
const maxLogs = 500

// Snapshot is the patrol status shown on the dashboard.
type Snapshot struct {
	RunID   string              `json:"run_id"`
	State   string              `json:"state"`
	Tick    uint64              `json:"tick"`
	Marker  *marker.BoundingBox `json:"marker,omitempty"`
	Command steering.Command    `json:"command"`
	Bumped  bool                `json:"bumped"`
	Updated time.Time           `json:"updated"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Kind    string `json:"kind"` // info, skew, bump, stop
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	addr string

	state   Snapshot
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	stopRequested atomic.Bool

	// hubCtx bounds the hub goroutines; Shutdown cancels it.
	hubCtx context.Context
	cancel context.CancelFunc
}

// NewServer creates a dashboard listening on addr (e.g. ":8080").
func NewServer(addr string) *Server {
	s := &Server{
		addr:      addr,
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}
	s.hubCtx, s.cancel = context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               "Patrol Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Post("/stop", s.handleStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/logs", websocket.New(s.serveHub(s.logHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))

	s.app = app
	return s
}

// Start runs the hubs and listens on the configured address. It blocks.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves on ln until Shutdown. It blocks.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.hubCtx.Done():
		}
	}()

	go s.statusHub.Run(s.hubCtx)
	go s.logHub.Run(s.hubCtx)
	go s.cameraHub.Run(s.hubCtx)

	log.Component("web").Info("dashboard listening", "url", "http://"+ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Component("web").Error("dashboard stopped", "err", err)
		}
	}()
}

// UpdateState replaces the status snapshot and broadcasts it.
func (s *Server) UpdateState(snap Snapshot) {
	snap.Updated = time.Now()
	s.stateMu.Lock()
	s.state = snap
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(snap)
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(kind, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Kind:    kind,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame sends an encoded JPEG to all camera subscribers.
func (s *Server) SendCameraFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// Snapshot returns the latest status snapshot.
func (s *Server) Snapshot() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Logs returns a copy of the buffered log entries.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// RequestStop latches a stop request. It reports whether this call set it.
func (s *Server) RequestStop() bool {
	return s.stopRequested.CompareAndSwap(false, true)
}

// StopRequested reports whether a client asked the robot to stop.
func (s *Server) StopRequested() bool {
	return s.stopRequested.Load()
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
