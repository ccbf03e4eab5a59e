package session

import (
	"fmt"
	"net/http"
	"sync"
)

// Sender delivers one SSE event to the connected client.
type Sender interface {
	Send(event string, data []byte) error
}

// SSETransport writes server-sent event frames to an HTTP response.
// Writes are serialized: the connection's own goroutine (heartbeats)
// and message routing from POST handlers both send through it.
type SSETransport struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// NewSSETransport prepares the response for event streaming. Fails when
// the underlying writer cannot flush, since buffered SSE is useless.
func NewSSETransport(w http.ResponseWriter) (*SSETransport, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSETransport{w: w, flusher: flusher}, nil
}

// Send writes one SSE frame and flushes it. The first failed write marks
// the transport closed; callers must treat an error as fatal for the
// session rather than retry.
func (t *SSETransport) Send(event string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport closed")
	}

	if _, err := fmt.Fprintf(t.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		t.closed = true
		return fmt.Errorf("writing event: %w", err)
	}
	t.flusher.Flush()

	return nil
}
