package oauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
)

// Metrics receives issuance events from the handler. Implementations
// must be safe for concurrent use.
type Metrics interface {
	TokenIssued()
}

// HandlerConfig carries the static configuration of the authorization server.
type HandlerConfig struct {
	// AdminUser and AdminPassword are the operator credentials checked
	// by the login endpoint.
	AdminUser     string
	AdminPassword string

	// BaseURL, when set, overrides per-request derivation of the
	// public URL used in the discovery document.
	BaseURL string
}

// Handler implements the authorization server endpoints: discovery,
// authorize, login, token, and userinfo.
type Handler struct {
	cfg      HandlerConfig
	codes    *FlowStore
	tokens   *TokenStore
	admins   *AdminSessions
	dir      hosts.Directory
	fallback *hosts.FallbackHost
	limiter  *loginRateLimiter
	logger   *slog.Logger
	metrics  Metrics
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics sets the issuance metrics sink.
func WithMetrics(m Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates the authorization server. dir and fallback feed the
// host resolution performed at code issuance and token exchange.
func NewHandler(cfg HandlerConfig, dir hosts.Directory, fallback *hosts.FallbackHost, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:      cfg,
		dir:      dir,
		fallback: fallback,
		limiter:  newLoginRateLimiter(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.codes = NewFlowStore(h.logger)
	h.tokens = NewTokenStore(h.logger)
	h.admins = NewAdminSessions()

	return h
}

// Tokens exposes the token store for the bearer middleware and metrics.
func (h *Handler) Tokens() *TokenStore { return h.tokens }

// AdminSessions exposes the cookie session registry for admin routes.
func (h *Handler) AdminSessions() *AdminSessions { return h.admins }

// Close stops the background sweeps of both stores.
func (h *Handler) Close() {
	h.codes.Close()
	h.tokens.Close()
}

// baseURL returns the public URL of this server for the inbound request,
// honoring X-Forwarded-Proto and X-Forwarded-Host set by a reverse proxy.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimRight(h.cfg.BaseURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}

// ServeDiscovery handles GET /.well-known/openid-configuration.
func (h *Handler) ServeDiscovery(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL(r)

	doc := DiscoveryDocument{
		Issuer:                            base,
		AuthorizationEndpoint:             base + "/oauth/authorize",
		TokenEndpoint:                     base + "/oauth/token",
		UserinfoEndpoint:                  base + "/oauth/userinfo",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		ScopesSupported:                   []string{ScopeMCP},
		CodeChallengeMethodsSupported:     SupportedCodeChallengeMethods,
		TokenEndpointAuthMethodsSupported: []string{"none"},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// authorizeParams are the OAuth parameters carried from the authorize
// request through the login form and back.
type authorizeParams struct {
	ClientID            string
	RedirectURI         string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	HostID              string
}

func authorizeParamsFromValues(get func(string) string) authorizeParams {
	hostID := get("host_id")
	if hostID == "" {
		hostID = get("hostId")
	}

	return authorizeParams{
		ClientID:            get("client_id"),
		RedirectURI:         get("redirect_uri"),
		State:               get("state"),
		Scope:               get("scope"),
		CodeChallenge:       get("code_challenge"),
		CodeChallengeMethod: get("code_challenge_method"),
		HostID:              hostID,
	}
}

// ServeAuthorize handles GET /oauth/authorize. An authenticated admin
// browser gets a code immediately; everyone else gets the login form
// with the OAuth parameters preserved as hidden fields.
func (h *Handler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	p := authorizeParamsFromValues(r.URL.Query().Get)

	// redirect_uri is mandatory and terminal: there is nowhere to
	// deliver an error redirect without it.
	if p.RedirectURI == "" {
		WriteError(w, ErrInvalidRequest("redirect_uri is required"))
		return
	}

	if p.CodeChallenge == "" {
		redirectWithError(w, r, p.RedirectURI, p.State, "invalid_request", "code_challenge is required (PKCE)")
		return
	}
	if p.CodeChallengeMethod != "" && p.CodeChallengeMethod != "S256" {
		redirectWithError(w, r, p.RedirectURI, p.State, "invalid_request", "only S256 code_challenge_method is supported")
		return
	}

	if h.admins.FromRequest(r) {
		h.issueCodeAndRedirect(w, r, p)
		return
	}

	renderLogin(w, p, "", http.StatusOK)
}

// ServeLogin handles POST /oauth/login. A successful login sets the
// admin session cookie; when OAuth parameters rode along, it also mints
// the authorization code in the same step.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrInvalidRequest("invalid form data"))
		return
	}

	p := authorizeParamsFromValues(r.FormValue)
	username := r.FormValue("username")
	password := r.FormValue("password")

	ip := remoteIP(r)
	if h.limiter.check(ip) {
		h.logger.Warn("login rate limited", "ip", ip)
		http.Error(w, "too many failed login attempts, try again later", http.StatusTooManyRequests)
		return
	}

	if !h.checkCredentials(username, password) {
		h.logger.Warn("login failed", "username", username, "ip", ip)
		h.limiter.record(ip)
		renderLogin(w, p, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	SetCookie(w, h.admins.Create())
	h.logger.Info("admin login", "ip", ip, logging.Status(logging.StatusSuccess))

	if p.RedirectURI != "" {
		h.issueCodeAndRedirect(w, r, p)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusFound)
}

// checkCredentials compares the submitted credentials against the
// configured admin pair. Both sides are hashed before comparison so
// ConstantTimeCompare sees equal-length inputs.
func (h *Handler) checkCredentials(username, password string) bool {
	userH := sha256.Sum256([]byte(username))
	wantUserH := sha256.Sum256([]byte(h.cfg.AdminUser))
	passH := sha256.Sum256([]byte(password))
	wantPassH := sha256.Sum256([]byte(h.cfg.AdminPassword))

	userOK := subtle.ConstantTimeCompare(userH[:], wantUserH[:])
	passOK := subtle.ConstantTimeCompare(passH[:], wantPassH[:])

	return userOK&passOK == 1
}

// issueCodeAndRedirect mints an authorization code bound to the host
// resolved from the explicit query candidate and sends the user-agent
// back to the client.
func (h *Handler) issueCodeAndRedirect(w http.ResponseWriter, r *http.Request, p authorizeParams) {
	code, err := GenerateAuthorizationCode()
	if err != nil {
		h.logger.Error("failed to generate authorization code", logging.Err(err))
		WriteError(w, NewError("server_error", "failed to generate code", http.StatusInternalServerError))
		return
	}

	// No token exists at this point, so only the explicit candidate
	// feeds the resolver.
	hostID := ""
	if entry, ok := hosts.Resolve(h.dir, p.HostID, "", h.fallback); ok {
		hostID = entry.ID
	}

	h.codes.Save(&AuthorizationCode{
		Code:                code,
		ClientID:            p.ClientID,
		RedirectURI:         p.RedirectURI,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
		Scope:               p.Scope,
		State:               p.State,
		HostID:              hostID,
		CreatedAt:           time.Now(),
	})

	params := url.Values{}
	params.Set("code", code)
	if p.State != "" {
		params.Set("state", p.State)
	}

	sep := "?"
	if strings.Contains(p.RedirectURI, "?") {
		sep = "&"
	}

	h.logger.Info("authorization code issued",
		logging.ClientID(p.ClientID),
		logging.HostID(hostID),
	)
	http.Redirect(w, r, p.RedirectURI+sep+params.Encode(), http.StatusFound)
}

// tokenRequest is the token endpoint request, accepted as either a form
// or a JSON body.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	CodeVerifier string `json:"code_verifier"`
}

// ServeToken handles POST /oauth/token: the single-use code-for-token
// exchange. PKCE and the redirect binding are validated before the code
// is consumed, so a failed exchange leaves the code intact for a retry
// within its TTL.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req tokenRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, ErrInvalidRequest("invalid request body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, ErrInvalidRequest("invalid form data"))
			return
		}
		req = tokenRequest{
			GrantType:    r.FormValue("grant_type"),
			Code:         r.FormValue("code"),
			RedirectURI:  r.FormValue("redirect_uri"),
			ClientID:     r.FormValue("client_id"),
			CodeVerifier: r.FormValue("code_verifier"),
		}
	}

	if req.GrantType != "authorization_code" {
		WriteError(w, ErrUnsupportedGrantType("only authorization_code is supported"))
		return
	}
	if req.Code == "" {
		WriteError(w, ErrInvalidRequest("code is required"))
		return
	}

	ac, ok := h.codes.Get(req.Code)
	if !ok {
		WriteError(w, ErrInvalidGrant("invalid or expired authorization code"))
		return
	}

	if req.RedirectURI != ac.RedirectURI {
		WriteError(w, ErrInvalidGrant("redirect_uri mismatch"))
		return
	}

	if req.ClientID != "" && ac.ClientID != "" && req.ClientID != ac.ClientID {
		WriteError(w, ErrInvalidClient("client_id mismatch"))
		return
	}

	if ac.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			WriteError(w, ErrInvalidGrant("code_verifier is required"))
			return
		}
		if !ValidateCodeChallenge(req.CodeVerifier, ac.CodeChallenge, ac.CodeChallengeMethod) {
			WriteError(w, ErrInvalidGrant("PKCE verification failed"))
			return
		}
	}

	// Every check passed: consume the code now so it can never be replayed.
	h.codes.Delete(req.Code)

	token, err := GenerateAccessToken()
	if err != nil {
		h.logger.Error("failed to generate access token", logging.Err(err))
		WriteError(w, NewError("server_error", "failed to generate token", http.StatusInternalServerError))
		return
	}

	// Re-resolve the host at exchange time: a code issued before any
	// host existed can still bind to whatever became the default since.
	hostID := ac.HostID
	if entry, ok := hosts.Resolve(h.dir, ac.HostID, "", h.fallback); ok {
		hostID = entry.ID
	}

	scope := ac.Scope
	if scope == "" {
		scope = ScopeMCP
	}

	h.tokens.Save(&AccessToken{
		Token:     token,
		Subject:   Subject,
		Scope:     scope,
		HostID:    hostID,
		CreatedAt: time.Now(),
		ExpiresIn: TokenTTL,
	})

	if h.metrics != nil {
		h.metrics.TokenIssued()
	}
	h.logger.Info("access token issued",
		logging.ClientID(ac.ClientID),
		logging.HostID(hostID),
		"token", logging.SanitizeToken(token),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(TokenTTL.Seconds()),
		Scope:       scope,
		HostID:      hostID,
	})
}

// ServeUserinfo handles GET /oauth/userinfo: a bearer-gated identity echo.
func (h *Handler) ServeUserinfo(w http.ResponseWriter, r *http.Request) {
	at, ok := h.tokenFromRequest(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		WriteError(w, ErrInvalidToken("missing or invalid access token"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(UserinfoResponse{
		Sub:   at.Subject,
		Name:  at.Subject,
		Scope: at.Scope,
	})
}

// tokenFromRequest extracts and validates the bearer token on a request.
func (h *Handler) tokenFromRequest(r *http.Request) (*AccessToken, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, false
	}
	return h.tokens.Get(parts[1])
}

// renderLogin writes the login form with the given status.
func renderLogin(w http.ResponseWriter, p authorizeParams, errMsg string, status int) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
	w.WriteHeader(status)
	_ = loginPage.Execute(w, loginData{
		ClientID:            p.ClientID,
		RedirectURI:         p.RedirectURI,
		State:               p.State,
		Scope:               p.Scope,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
		HostID:              p.HostID,
		Error:               errMsg,
	})
}

// redirectWithError sends the user-agent back to the client with an RFC
// 6749 error response. Only called after redirect_uri presence is checked.
func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, state, errCode, description string) {
	params := url.Values{}
	params.Set("error", errCode)
	params.Set("error_description", description)
	if state != "" {
		params.Set("state", state)
	}

	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}

	http.Redirect(w, r, redirectURI+sep+params.Encode(), http.StatusFound)
}

// remoteIP extracts the IP address from r.RemoteAddr, stripping the
// port. Falls back to the raw value if parsing fails.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loginRateLimiter tracks failed login attempts per IP with a sliding
// window. After rateLimitMaxFail failures within the window, further
// attempts are rejected until the window expires.
type loginRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	rateLimitWindow  = 5 * time.Minute
	rateLimitMaxFail = 10

	// rateLimitPruneThreshold is the number of tracked IPs above which
	// the limiter prunes expired entries to prevent unbounded growth.
	rateLimitPruneThreshold = 1000
)

func newLoginRateLimiter() *loginRateLimiter {
	return &loginRateLimiter{
		failures: make(map[string][]time.Time),
	}
}

// check returns true if the IP is currently rate-limited.
func (rl *loginRateLimiter) check(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)

	if len(rl.failures) > rateLimitPruneThreshold {
		for k, times := range rl.failures {
			if len(times) == 0 || times[len(times)-1].Before(cutoff) {
				delete(rl.failures, k)
			}
		}
	}

	recent := rl.failures[ip][:0]
	for _, t := range rl.failures[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) == 0 {
		delete(rl.failures, ip)
	} else {
		rl.failures[ip] = recent
	}

	return len(recent) >= rateLimitMaxFail
}

// record adds a failed attempt for the IP.
func (rl *loginRateLimiter) record(ip string) {
	rl.mu.Lock()
	rl.failures[ip] = append(rl.failures[ip], time.Now())
	rl.mu.Unlock()
}
