package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-patrol/pkg/hub"
)

// handleStatus returns the latest patrol snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleStop latches a stop request; the patrol loop picks it up on its
// next exit check.
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.RequestStop() {
		s.AddLog("stop", "stop requested from dashboard ("+c.IP()+")")
	}
	return c.JSON(fiber.Map{"stopping": true})
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.Serve(h, c)
	}
}
