package hosts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	entries    map[string]Entry
	defaultEnt *Entry
}

func (d *fakeDirectory) Get(id string) (Entry, bool) {
	e, ok := d.entries[id]
	return e, ok
}

func (d *fakeDirectory) GetDefault() (Entry, bool) {
	if d.defaultEnt == nil {
		return Entry{}, false
	}
	return *d.defaultEnt, true
}

func TestResolvePrecedence(t *testing.T) {
	explicit := Entry{ID: "h-explicit", BaseURL: "https://explicit.example.com", APIKey: "ke"}
	bound := Entry{ID: "h-token", BaseURL: "https://token.example.com", APIKey: "kt"}
	def := Entry{ID: "h-default", BaseURL: "https://default.example.com", APIKey: "kd"}
	fallback := &FallbackHost{BaseURL: "https://env.example.com", APIKey: "kf"}

	dir := &fakeDirectory{
		entries: map[string]Entry{
			explicit.ID: explicit,
			bound.ID:    bound,
			def.ID:      def,
		},
		defaultEnt: &def,
	}

	tests := []struct {
		name       string
		dir        Directory
		explicitID string
		tokenID    string
		fallback   *FallbackHost
		wantID     string
		wantOK     bool
	}{
		{
			name:       "explicit wins over token and default",
			dir:        dir,
			explicitID: explicit.ID,
			tokenID:    bound.ID,
			fallback:   fallback,
			wantID:     explicit.ID,
			wantOK:     true,
		},
		{
			name:     "token host beats default",
			dir:      dir,
			tokenID:  bound.ID,
			fallback: fallback,
			wantID:   bound.ID,
			wantOK:   true,
		},
		{
			name:     "default when nothing else given",
			dir:      dir,
			fallback: fallback,
			wantID:   def.ID,
			wantOK:   true,
		},
		{
			name:       "unknown explicit falls through to token host",
			dir:        dir,
			explicitID: "deleted",
			tokenID:    bound.ID,
			wantID:     bound.ID,
			wantOK:     true,
		},
		{
			name:     "stale token host falls through to default",
			dir:      dir,
			tokenID:  "deleted",
			wantID:   def.ID,
			wantOK:   true,
		},
		{
			name:     "env fallback when the directory is empty",
			dir:      &fakeDirectory{entries: map[string]Entry{}},
			fallback: fallback,
			wantID:   FallbackHostID,
			wantOK:   true,
		},
		{
			name:   "unresolved when nothing is configured",
			dir:    &fakeDirectory{entries: map[string]Entry{}},
			wantOK: false,
		},
		{
			name:     "incomplete fallback does not resolve",
			dir:      &fakeDirectory{entries: map[string]Entry{}},
			fallback: &FallbackHost{BaseURL: "https://env.example.com"},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.dir, tt.explicitID, tt.tokenID, tt.fallback)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestResolveFallbackEntry(t *testing.T) {
	fallback := &FallbackHost{BaseURL: "https://env.example.com", APIKey: "kf"}
	got, ok := Resolve(&fakeDirectory{entries: map[string]Entry{}}, "", "", fallback)
	require.True(t, ok)
	assert.Equal(t, FallbackHostID, got.ID)
	assert.Equal(t, fallback.BaseURL, got.BaseURL)
	assert.Equal(t, fallback.APIKey, got.APIKey)
	assert.True(t, got.Complete())
}
