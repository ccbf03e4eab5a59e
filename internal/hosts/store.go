package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when an operation references an unknown host id.
var ErrNotFound = errors.New("host not found")

// Prober checks whether a candidate backend is reachable with the given
// credentials. Wired to the backend adapter's health probe at startup.
type Prober interface {
	Probe(ctx context.Context, baseURL, apiKey string) error
}

// Store is the durable registry of known hosts plus the designated
// default. All mutations persist synchronously to a single JSON file;
// a persistence failure is logged but does not roll back the in-memory
// change, since the file is advisory rather than a system of record.
type Store struct {
	mu            sync.RWMutex
	entries       []Entry
	defaultHostID string
	path          string
	prober        Prober
	logger        *slog.Logger
}

// persisted is the on-disk shape of the store.
type persisted struct {
	Hosts         []Entry `json:"hosts"`
	DefaultHostID string  `json:"defaultHostId,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithProber sets the connectivity prober used by TestConnectivity.
func WithProber(p Prober) Option {
	return func(s *Store) { s.prober = p }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore loads the registry from path, creating an empty store when the
// file does not exist yet. A corrupt file is an error: silently starting
// empty would orphan the operator's credentials.
func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading hosts file: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing hosts file %s: %w", path, err)
	}

	s.entries = p.Hosts
	s.defaultHostID = p.DefaultHostID

	// Repair a dangling default reference rather than carrying it around.
	if s.defaultHostID != "" {
		if _, ok := s.lookup(s.defaultHostID); !ok {
			s.defaultHostID = ""
		}
	}

	return s, nil
}

// Add registers a new host and returns its generated id. The first host
// added to an empty store becomes the default.
func (s *Store) Add(name, baseURL, apiKey string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("base URL is required")
	}
	if apiKey == "" {
		return "", fmt.Errorf("API key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:        NewID(),
		Name:      name,
		BaseURL:   baseURL,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)

	if s.defaultHostID == "" {
		s.defaultHostID = entry.ID
	}

	s.persist()
	s.logger.Info("host added", "host_id", entry.ID, "name", name)
	return entry.ID, nil
}

// Remove deletes a host. Removing the default host moves the default to
// the first remaining host, or clears it when none remain.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)

	if s.defaultHostID == id {
		if len(s.entries) > 0 {
			s.defaultHostID = s.entries[0].ID
		} else {
			s.defaultHostID = ""
		}
	}

	s.persist()
	s.logger.Info("host removed", "host_id", id)
	return nil
}

// SetDefault marks an existing host as the default.
func (s *Store) SetDefault(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(id); !ok {
		return ErrNotFound
	}

	s.defaultHostID = id
	s.persist()
	s.logger.Info("default host changed", "host_id", id)
	return nil
}

// Get returns a copy of the host with the given id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

// GetDefault returns the default host: the designated default when set,
// else the first registered host, else nothing.
func (s *Store) GetDefault() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.defaultHostID != "" {
		if e, ok := s.lookup(s.defaultHostID); ok {
			return e, true
		}
	}
	if len(s.entries) > 0 {
		return s.entries[0], true
	}
	return Entry{}, false
}

// DefaultHostID returns the currently designated default id, if any.
func (s *Store) DefaultHostID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultHostID
}

// List returns a copy of all registered hosts in insertion order.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// TestConnectivity performs a lightweight health probe against a candidate
// backend without persisting anything. Returns reachability plus a
// human-readable diagnostic.
func (s *Store) TestConnectivity(ctx context.Context, baseURL, apiKey string) (bool, string) {
	if s.prober == nil {
		return false, "no connectivity prober configured"
	}
	if err := s.prober.Probe(ctx, baseURL, apiKey); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}

// lookup finds an entry by id. Callers must hold at least a read lock.
func (s *Store) lookup(id string) (Entry, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// persist rewrites the backing file from current state. Callers must hold
// the write lock. Failures are logged and swallowed: the in-memory state
// stays authoritative for the lifetime of the process.
func (s *Store) persist() {
	p := persisted{
		Hosts:         s.entries,
		DefaultHostID: s.defaultHostID,
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode hosts file", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Error("failed to create hosts directory", "path", s.path, "error", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Error("failed to write hosts file", "path", s.path, "error", err)
	}
}
