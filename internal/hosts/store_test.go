package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.json")
	s, err := NewStore(path)
	require.NoError(t, err)
	return s, path
}

func TestAddAndGet(t *testing.T) {
	s, path := newTestStore(t)

	id, err := s.Add("production", "https://n8n.example.com", "key-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entry, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "production", entry.Name)
	assert.Equal(t, "https://n8n.example.com", entry.BaseURL)
	assert.Equal(t, "key-1", entry.APIKey)
	assert.False(t, entry.CreatedAt.IsZero())

	// The first host becomes the default.
	assert.Equal(t, id, s.DefaultHostID())

	// Every mutation persists synchronously.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var p persisted
	require.NoError(t, json.Unmarshal(data, &p))
	require.Len(t, p.Hosts, 1)
	assert.Equal(t, id, p.DefaultHostID)
}

func TestAddValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add("no-url", "", "key")
	assert.ErrorContains(t, err, "base URL")

	_, err = s.Add("no-key", "https://n8n.example.com", "")
	assert.ErrorContains(t, err, "API key")
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)

	id, err := s.Add("prod", "https://n8n.example.com", "key-1")
	require.NoError(t, err)

	entry, ok := s.Get(id)
	require.True(t, ok)
	entry.APIKey = "tampered"

	fresh, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "key-1", fresh.APIKey)
}

func TestRemoveDefaultFallsBack(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Add("a", "https://a.example.com", "ka")
	require.NoError(t, err)
	second, err := s.Add("b", "https://b.example.com", "kb")
	require.NoError(t, err)

	require.Equal(t, first, s.DefaultHostID())

	// Removing the default moves it to the first remaining host.
	require.NoError(t, s.Remove(first))
	assert.Equal(t, second, s.DefaultHostID())

	// Removing the last host clears the default entirely.
	require.NoError(t, s.Remove(second))
	assert.Empty(t, s.DefaultHostID())
	_, ok := s.GetDefault()
	assert.False(t, ok)
}

func TestRemoveUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.Remove("nope"), ErrNotFound)
}

func TestSetDefault(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Add("a", "https://a.example.com", "ka")
	require.NoError(t, err)
	second, err := s.Add("b", "https://b.example.com", "kb")
	require.NoError(t, err)

	require.NoError(t, s.SetDefault(second))
	entry, ok := s.GetDefault()
	require.True(t, ok)
	assert.Equal(t, second, entry.ID)

	assert.ErrorIs(t, s.SetDefault("missing"), ErrNotFound)
	// A failed SetDefault leaves the previous default intact.
	assert.Equal(t, second, s.DefaultHostID())
	_ = first
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	idA, err := s.Add("a", "https://a.example.com", "ka")
	require.NoError(t, err)
	idB, err := s.Add("b", "https://b.example.com", "kb")
	require.NoError(t, err)
	require.NoError(t, s.SetDefault(idB))

	reloaded, err := NewStore(path)
	require.NoError(t, err)

	assert.Len(t, reloaded.List(), 2)
	assert.Equal(t, idB, reloaded.DefaultHostID())
	entry, ok := reloaded.Get(idA)
	require.True(t, ok)
	assert.Equal(t, "ka", entry.APIKey)
}

func TestLoadDanglingDefaultIsRepaired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")
	blob := `{"hosts":[{"id":"h1","name":"a","baseUrl":"https://a.example.com","apiKey":"ka"}],"defaultHostId":"gone"}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.Empty(t, s.DefaultHostID())

	// GetDefault still serves the first entry.
	entry, ok := s.GetDefault()
	require.True(t, ok)
	assert.Equal(t, "h1", entry.ID)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStore(path)
	assert.ErrorContains(t, err, "parsing hosts file")
}

type fakeProber struct {
	err error
}

func (f *fakeProber) Probe(_ context.Context, _, _ string) error { return f.err }

func TestTestConnectivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")

	t.Run("reachable", func(t *testing.T) {
		s, err := NewStore(path, WithProber(&fakeProber{}))
		require.NoError(t, err)
		ok, diag := s.TestConnectivity(context.Background(), "https://a.example.com", "ka")
		assert.True(t, ok)
		assert.Equal(t, "ok", diag)
	})

	t.Run("unreachable", func(t *testing.T) {
		s, err := NewStore(path, WithProber(&fakeProber{err: errors.New("connection refused")}))
		require.NoError(t, err)
		ok, diag := s.TestConnectivity(context.Background(), "https://a.example.com", "ka")
		assert.False(t, ok)
		assert.Contains(t, diag, "connection refused")
	})

	t.Run("no prober configured", func(t *testing.T) {
		s, err := NewStore(path)
		require.NoError(t, err)
		ok, _ := s.TestConnectivity(context.Background(), "https://a.example.com", "ka")
		assert.False(t, ok)
	})
}

func TestNewIDIsOrderedAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 100; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		require.GreaterOrEqual(t, id, prev)
		prev = id
	}
}
