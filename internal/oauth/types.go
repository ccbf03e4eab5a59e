package oauth

import "time"

// AuthorizationCode is a single-use credential minted by the authorize
// step and exchanged for an access token. Validity is bounded by
// CreatedAt + CodeTTL.
type AuthorizationCode struct {
	Code                string
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Scope               string
	State               string
	HostID              string
	CreatedAt           time.Time
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.CreatedAt.Add(CodeTTL))
}

// AccessToken is a bearer secret minted by a successful code exchange.
// Once expired it is treated identically to never having existed.
type AccessToken struct {
	Token     string
	Subject   string
	Scope     string
	HostID    string
	CreatedAt time.Time
	ExpiresIn time.Duration
}

// Expired reports whether the token is past its TTL at the given instant.
func (t *AccessToken) Expired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(t.ExpiresIn))
}

// TokenResponse is the successful token endpoint response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
	HostID      string `json:"host_id,omitempty"`
}

// DiscoveryDocument is the OpenID-style discovery metadata served at
// /.well-known/openid-configuration. URLs are derived per request from
// the forwarded host so the gateway works behind a reverse proxy.
type DiscoveryDocument struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// UserinfoResponse is the bearer-gated identity echo.
type UserinfoResponse struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// ErrorResponse represents an OAuth error response body.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// ErrorDescription provides additional information.
	ErrorDescription string `json:"error_description,omitempty"`
}
