package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-patrol/pkg/marker"
	"github.com/teslashibe/go-patrol/pkg/steering"
)

func TestHandleStatus(t *testing.T) {
	s := NewServer(":0")
	s.UpdateState(Snapshot{
		RunID:   "run-1",
		State:   "patrolling",
		Tick:    42,
		Marker:  &marker.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
		Command: steering.Command{ForwardSpeed: 10, TurnRate: 10, Skew: steering.SkewedLeft},
	})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, float64(42), got["tick"])
	cmd := got["command"].(map[string]any)
	assert.Equal(t, "skewed left", cmd["skew"])
	box := got["marker"].(map[string]any)
	assert.Equal(t, float64(30), box["width"])
}

func TestHandleStop(t *testing.T) {
	s := NewServer(":0")
	assert.False(t, s.StopRequested())

	for i := 0; i < 2; i++ {
		resp, err := s.app.Test(httptest.NewRequest("POST", "/api/stop", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
	assert.True(t, s.StopRequested())

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/logs", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	var logs []LogEntry
	require.NoError(t, json.Unmarshal(body, &logs))
	require.Len(t, logs, 1, "repeated stop requests log once")
	assert.Equal(t, "stop", logs[0].Kind)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer(":0")
	resp, err := s.app.Test(httptest.NewRequest("GET", "/ws/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func TestLogBufferBounded(t *testing.T) {
	s := NewServer(":0")
	for i := 0; i < maxLogs+10; i++ {
		s.AddLog("info", "line")
	}
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	assert.Len(t, s.logs, maxLogs)
}

func TestStatusWebSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String())
	go s.Serve(context.Background(), ln)
	defer s.Shutdown()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/status", nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	s.UpdateState(Snapshot{RunID: "run-ws", State: "patrolling", Tick: 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "run-ws", snap.RunID)
	assert.Equal(t, uint64(7), snap.Tick)
}

func TestCameraWebSocketBinary(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String())
	go s.Serve(context.Background(), ln)
	defer s.Shutdown()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/camera", nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	s.SendCameraFrame(frame)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, frame, data)
}
