package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenStore(t *testing.T) *TokenStore {
	t.Helper()
	s := NewTokenStoreWithInterval(nil, time.Hour)
	t.Cleanup(s.Close)
	return s
}

func TestTokenStoreSaveAndGet(t *testing.T) {
	s := newTestTokenStore(t)

	s.Save(&AccessToken{
		Token:     "tok-1",
		Subject:   Subject,
		Scope:     ScopeMCP,
		CreatedAt: time.Now(),
		ExpiresIn: TokenTTL,
	})

	at, ok := s.Get("tok-1")
	require.True(t, ok)
	assert.Equal(t, Subject, at.Subject)
	assert.Equal(t, ScopeMCP, at.Scope)
}

func TestTokenStoreExpiredTokenIsDiscarded(t *testing.T) {
	s := newTestTokenStore(t)

	s.Save(&AccessToken{
		Token:     "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresIn: TokenTTL,
	})

	// An expired token behaves identically to one that never existed.
	_, ok := s.Get("stale")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestTokenStoreDelete(t *testing.T) {
	s := newTestTokenStore(t)

	s.Save(&AccessToken{Token: "tok-1", CreatedAt: time.Now(), ExpiresIn: TokenTTL})
	s.Delete("tok-1")

	_, ok := s.Get("tok-1")
	assert.False(t, ok)
}

func TestTokenStoreSweep(t *testing.T) {
	s := newTestTokenStore(t)

	s.Save(&AccessToken{Token: "live", CreatedAt: time.Now(), ExpiresIn: TokenTTL})
	s.Save(&AccessToken{Token: "stale", CreatedAt: time.Now().Add(-2 * time.Hour), ExpiresIn: TokenTTL})

	s.sweep()

	assert.Equal(t, 1, s.Len())
}
