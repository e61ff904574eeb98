// Package hub fans dashboard updates out to websocket subscribers.
// One goroutine owns the subscriber set; producers never block on slow clients.
package hub

// Kind indicates the websocket frame type a message is sent as.
type Kind int

const (
	// Text is a JSON-encoded text frame (status, log lines).
	Text Kind = iota
	// Binary is raw binary data (JPEG camera frames).
	Binary
)

// Message is one broadcast payload.
type Message struct {
	Kind Kind
	Data []byte
}
