package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flowgate/flowgate/internal/logging"
)

var (
	// ErrUnknownSession is returned when a message references a session
	// id that does not exist (or no longer exists).
	ErrUnknownSession = errors.New("unknown session")

	// ErrForbidden is returned when the caller's token does not match
	// the token the session was created with.
	ErrForbidden = errors.New("session bound to a different token")
)

// Dispatcher handles one inbound protocol message for a session. The
// returned payload, when ok, is delivered to the client over the
// session's transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, message json.RawMessage) (response []byte, ok bool)
}

// Record is one live session. It never outlives its connection: cancel
// tears the connection down, and the connection handler removes the
// record on the way out.
type Record struct {
	ID         string
	Transport  Sender
	BoundToken string

	dispatcher Dispatcher
	cancel     context.CancelFunc
}

// Metrics receives session lifecycle events. Implementations must be
// safe for concurrent use.
type Metrics interface {
	SessionOpened()
	SessionClosed()
}

// Registry is the shared map of live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Record
	logger   *slog.Logger
	metrics  Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics sets the lifecycle metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty session registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Record),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new session and returns its record. The id is
// server-generated and unguessable. cancel, when non-nil, is invoked on
// removal so an explicit teardown also closes the connection.
func (r *Registry) Create(transport Sender, dispatcher Dispatcher, boundToken string, cancel context.CancelFunc) *Record {
	rec := &Record{
		ID:         uuid.NewString(),
		Transport:  transport,
		BoundToken: boundToken,
		dispatcher: dispatcher,
		cancel:     cancel,
	}

	r.mu.Lock()
	r.sessions[rec.ID] = rec
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SessionOpened()
	}
	r.logger.Info("session created", logging.SessionID(rec.ID))

	return rec
}

// Lookup returns the record for a session id.
func (r *Registry) Lookup(id string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[id]
	return rec, ok
}

// Remove deregisters a session and cancels its connection. Removing an
// already-removed session is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	rec, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	if rec.cancel != nil {
		rec.cancel()
	}
	if r.metrics != nil {
		r.metrics.SessionClosed()
	}
	r.logger.Info("session removed", logging.SessionID(id))
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RoutePost delivers one inbound message to a session. The caller's
// token must match the session's bound token. The dispatcher's response,
// if any, flows back over the session's SSE transport; a transport
// failure removes the session immediately.
func (r *Registry) RoutePost(ctx context.Context, id, callerToken string, message json.RawMessage) error {
	rec, ok := r.Lookup(id)
	if !ok {
		return ErrUnknownSession
	}
	if rec.BoundToken != callerToken {
		return ErrForbidden
	}

	response, ok := rec.dispatcher.Dispatch(ctx, message)
	if !ok {
		return nil
	}

	if err := rec.Transport.Send("message", response); err != nil {
		r.logger.Warn("send failed, removing session", logging.SessionID(id), logging.Err(err))
		r.Remove(id)
		return err
	}

	return nil
}
