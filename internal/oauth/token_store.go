package oauth

import (
	"log/slog"
	"sync"
	"time"
)

// TokenStore manages issued access tokens in memory. Tokens are bearer
// secrets compared by literal string equality; an expired token is
// treated identically to one that never existed.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*AccessToken
	done   chan struct{}
	logger *slog.Logger
}

// NewTokenStore creates a token store with the default sweep interval.
func NewTokenStore(logger *slog.Logger) *TokenStore {
	return NewTokenStoreWithInterval(logger, DefaultCleanupInterval)
}

// NewTokenStoreWithInterval creates a token store with a custom sweep interval.
func NewTokenStoreWithInterval(logger *slog.Logger, interval time.Duration) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}

	s := &TokenStore{
		tokens: make(map[string]*AccessToken),
		done:   make(chan struct{}),
		logger: logger,
	}

	go s.cleanup(interval)

	return s
}

// Save stores an access token.
func (s *TokenStore) Save(token *AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Token] = token
	s.logger.Debug("saved access token",
		"subject", token.Subject,
		"host_id", token.HostID,
		"expires_at", token.CreatedAt.Add(token.ExpiresIn),
	)
}

// Get retrieves a live token. Expired tokens are discarded on lookup.
func (s *TokenStore) Get(token string) (*AccessToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	if at.Expired(time.Now()) {
		delete(s.tokens, token)
		return nil, false
	}

	return at, true
}

// Delete revokes a token.
func (s *TokenStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Close stops the background sweep.
func (s *TokenStore) Close() {
	close(s.done)
}

func (s *TokenStore) cleanup(interval time.Duration) {
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

func (s *TokenStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	deleted := 0
	for key, at := range s.tokens {
		if at.Expired(now) {
			delete(s.tokens, key)
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.Debug("swept expired access tokens", "deleted", deleted)
	}
}
