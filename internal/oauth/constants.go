package oauth

import "time"

const (
	// CodeTTL is how long authorization codes are valid.
	CodeTTL = 5 * time.Minute

	// TokenTTL is how long access tokens are valid.
	TokenTTL = 1 * time.Hour

	// AdminSessionTTL bounds the browser cookie session that gates the
	// admin UI and the authorize login prompt. Unrelated to bearer tokens.
	AdminSessionTTL = 24 * time.Hour

	// DefaultCleanupInterval is how often the stores sweep expired entries.
	// Expiry is also enforced lazily at lookup time, so the sweep only
	// bounds memory, not correctness.
	DefaultCleanupInterval = 1 * time.Minute

	// Subject is the fixed token subject. There is exactly one principal.
	Subject = "admin"

	// ScopeMCP is the only scope this server issues.
	ScopeMCP = "mcp"

	// AdminSessionCookie is the name of the admin session cookie.
	AdminSessionCookie = "flowgate_session"
)

// Token generation byte lengths, base64url-encoded without padding.
const (
	authorizationCodeBytes = 32
	accessTokenBytes       = 32
)

// SupportedCodeChallengeMethods lists the PKCE methods accepted at the
// authorization endpoint. Plain is rejected per OAuth 2.1.
var SupportedCodeChallengeMethods = []string{"S256"}
