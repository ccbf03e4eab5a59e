package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSETransportSend(t *testing.T) {
	rec := httptest.NewRecorder()

	tr, err := NewSSETransport(rec)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	require.NoError(t, tr.Send("connected", []byte(`{"sessionId":"abc"}`)))
	require.NoError(t, tr.Send("ping", []byte(`{}`)))

	assert.Equal(t, "event: connected\ndata: {\"sessionId\":\"abc\"}\n\nevent: ping\ndata: {}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

type nonFlushingWriter struct {
	headers http.Header
}

func (w *nonFlushingWriter) Header() http.Header {
	if w.headers == nil {
		w.headers = make(http.Header)
	}
	return w.headers
}

func (w *nonFlushingWriter) Write([]byte) (int, error) { return 0, nil }
func (w *nonFlushingWriter) WriteHeader(int)           {}

func TestSSETransportRequiresFlusher(t *testing.T) {
	_, err := NewSSETransport(&nonFlushingWriter{})
	assert.ErrorContains(t, err, "streaming")
}
