package hosts

// Directory is the read-only view of the store that resolution needs.
type Directory interface {
	Get(id string) (Entry, bool)
	GetDefault() (Entry, bool)
}

// Resolve picks exactly one host for a request. First candidate that
// resolves to a real entry wins, in this exact precedence order:
//
//  1. the explicit host id from the request query,
//  2. the host id remembered on the caller's access token,
//  3. the store's default host,
//  4. the environment fallback, synthesized into an Entry.
//
// This ordering is the system's multi-tenant safety net: an explicit
// request always beats a remembered binding, which always beats ambient
// defaults. Returns false when nothing resolves; callers answer that
// with host_not_configured, never a crash.
func Resolve(dir Directory, explicitID, tokenHostID string, fallback *FallbackHost) (Entry, bool) {
	if explicitID != "" {
		if e, ok := dir.Get(explicitID); ok {
			return e, true
		}
	}

	if tokenHostID != "" {
		if e, ok := dir.Get(tokenHostID); ok {
			return e, true
		}
	}

	if e, ok := dir.GetDefault(); ok {
		return e, true
	}

	if fallback != nil && fallback.BaseURL != "" && fallback.APIKey != "" {
		return Entry{
			ID:      FallbackHostID,
			Name:    "environment fallback",
			BaseURL: fallback.BaseURL,
			APIKey:  fallback.APIKey,
		}, true
	}

	return Entry{}, false
}
