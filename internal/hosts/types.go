package hosts

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one registered workflow backend. Entries are owned by the
// Store; lookups return value copies so callers can never mutate the
// registry through a shared pointer.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"baseUrl"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// Complete reports whether the entry carries everything needed to build
// a backend client.
func (e Entry) Complete() bool {
	return e.BaseURL != "" && e.APIKey != ""
}

// FallbackHost is an environment-supplied host used when the store has
// nothing to offer. It is synthesized into an Entry at resolution time.
type FallbackHost struct {
	BaseURL string
	APIKey  string
}

// FallbackHostID is the synthetic id given to the environment fallback
// host. It never collides with store ids, which are ULIDs.
const FallbackHostID = "env"

// entropy is shared across NewID calls so ids generated within the same
// millisecond remain monotonically ordered.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a timestamp-derived opaque host id.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
