// Package hosts manages the registry of known workflow backends.
//
// A host is one tenant's automation backend: a base URL plus the API key
// used to act against it. The store is file-backed (a single JSON file,
// rewritten whole on every mutation) and keeps a designated default host.
// Resolution of "which host does this request act against" is a pure
// precedence function over the explicit request hint, the token-bound
// host, the store default, and an optional environment fallback.
package hosts
