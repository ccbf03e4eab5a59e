package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	events []string
	data   [][]byte
	err    error
}

func (f *fakeSender) Send(event string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.data = append(f.data, data)
	return nil
}

type echoDispatcher struct {
	silent bool
	got    []json.RawMessage
}

func (d *echoDispatcher) Dispatch(_ context.Context, message json.RawMessage) ([]byte, bool) {
	d.got = append(d.got, message)
	if d.silent {
		return nil, false
	}
	return message, true
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry()

	a := r.Create(&fakeSender{}, &echoDispatcher{}, "tok-a", nil)
	b := r.Create(&fakeSender{}, &echoDispatcher{}, "tok-b", nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Lookup(a.ID)
	require.True(t, ok)
	assert.Equal(t, "tok-a", got.BoundToken)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	cancelled := 0
	rec := r.Create(&fakeSender{}, &echoDispatcher{}, "tok", func() { cancelled++ })

	r.Remove(rec.ID)
	r.Remove(rec.ID)

	_, ok := r.Lookup(rec.ID)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
	assert.Equal(t, 1, cancelled)
}

func TestRoutePost(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{}
	dispatcher := &echoDispatcher{}
	rec := r.Create(sender, dispatcher, "tok-a", nil)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.NoError(t, r.RoutePost(context.Background(), rec.ID, "tok-a", msg))

	require.Len(t, dispatcher.got, 1)
	require.Len(t, sender.events, 1)
	assert.Equal(t, "message", sender.events[0])
	assert.JSONEq(t, string(msg), string(sender.data[0]))
}

func TestRoutePostUnknownSession(t *testing.T) {
	r := NewRegistry()
	err := r.RoutePost(context.Background(), "nope", "tok", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSession)
}

// A session created by one token must not be reachable with another,
// even when the caller knows the session id.
func TestRoutePostForeignTokenIsForbidden(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{}
	rec := r.Create(sender, &echoDispatcher{}, "tok-a", nil)

	err := r.RoutePost(context.Background(), rec.ID, "tok-b", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, sender.events)

	// The session itself is unaffected.
	_, ok := r.Lookup(rec.ID)
	assert.True(t, ok)
}

func TestRoutePostNotificationSendsNothing(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{}
	rec := r.Create(sender, &echoDispatcher{silent: true}, "tok", nil)

	require.NoError(t, r.RoutePost(context.Background(), rec.ID, "tok", json.RawMessage(`{}`)))
	assert.Empty(t, sender.events)
}

func TestRoutePostSendFailureRemovesSession(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{err: errors.New("broken pipe")}
	rec := r.Create(sender, &echoDispatcher{}, "tok", nil)

	err := r.RoutePost(context.Background(), rec.ID, "tok", json.RawMessage(`{}`))
	require.Error(t, err)

	_, ok := r.Lookup(rec.ID)
	assert.False(t, ok)
}

type countingMetrics struct {
	opened, closed int
}

func (m *countingMetrics) SessionOpened() { m.opened++ }
func (m *countingMetrics) SessionClosed() { m.closed++ }

func TestMetricsHooks(t *testing.T) {
	m := &countingMetrics{}
	r := NewRegistry(WithMetrics(m))

	rec := r.Create(&fakeSender{}, &echoDispatcher{}, "tok", nil)
	assert.Equal(t, 1, m.opened)

	r.Remove(rec.ID)
	r.Remove(rec.ID)
	assert.Equal(t, 1, m.closed)
}
