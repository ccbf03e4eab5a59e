package oauth

import (
	"log/slog"
	"sync"
	"time"
)

// FlowStore manages in-flight authorization codes. Expiry is enforced
// lazily at lookup; a background sweep bounds memory for codes that are
// never exchanged.
//
// Lookup does not consume: the token endpoint validates PKCE and the
// redirect binding first and deletes the code only after every check
// passes, so a failed exchange leaves the code usable for a legitimate
// retry within its TTL.
type FlowStore struct {
	mu     sync.RWMutex
	codes  map[string]*AuthorizationCode
	done   chan struct{}
	logger *slog.Logger
}

// NewFlowStore creates a flow store with the default sweep interval.
func NewFlowStore(logger *slog.Logger) *FlowStore {
	return NewFlowStoreWithInterval(logger, DefaultCleanupInterval)
}

// NewFlowStoreWithInterval creates a flow store with a custom sweep interval.
func NewFlowStoreWithInterval(logger *slog.Logger, interval time.Duration) *FlowStore {
	if logger == nil {
		logger = slog.Default()
	}

	s := &FlowStore{
		codes:  make(map[string]*AuthorizationCode),
		done:   make(chan struct{}),
		logger: logger,
	}

	go s.cleanup(interval)

	return s
}

// Save stores an authorization code.
func (s *FlowStore) Save(code *AuthorizationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code.Code] = code
	s.logger.Debug("saved authorization code",
		"client_id", code.ClientID,
		"host_id", code.HostID,
		"expires_at", code.CreatedAt.Add(CodeTTL),
	)
}

// Get retrieves a live authorization code without consuming it. Expired
// codes are discarded and reported as absent.
func (s *FlowStore) Get(code string) (*AuthorizationCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	if ac.Expired(time.Now()) {
		delete(s.codes, code)
		return nil, false
	}

	return ac, true
}

// Delete consumes a code. Called exactly once per successful exchange.
func (s *FlowStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, code)
}

// Len returns the number of stored codes.
func (s *FlowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}

// Close stops the background sweep.
func (s *FlowStore) Close() {
	close(s.done)
}

func (s *FlowStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *FlowStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	deleted := 0
	for code, ac := range s.codes {
		if ac.Expired(now) {
			delete(s.codes, code)
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.Debug("swept expired authorization codes", "deleted", deleted)
	}
}
