package oauth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AdminSessions tracks logged-in admin browsers by opaque cookie value.
// These sessions gate the admin UI and the authorize login prompt; they
// are a separate credential type from bearer tokens and never cross over.
type AdminSessions struct {
	mu       sync.RWMutex
	sessions map[string]time.Time // session id -> expiry
}

// NewAdminSessions creates an empty admin session registry.
func NewAdminSessions() *AdminSessions {
	return &AdminSessions{
		sessions: make(map[string]time.Time),
	}
}

// Create mints a new admin session and returns its id.
func (a *AdminSessions) Create() string {
	id := uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.sessions[id] = time.Now().Add(AdminSessionTTL)
	return id
}

// Valid reports whether the session id is live. Expired sessions are
// discarded on lookup.
func (a *AdminSessions) Valid(id string) bool {
	if id == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	expiry, ok := a.sessions[id]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(a.sessions, id)
		return false
	}

	return true
}

// Revoke removes an admin session.
func (a *AdminSessions) Revoke(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.sessions, id)
}

// FromRequest reports whether the request carries a live admin session cookie.
func (a *AdminSessions) FromRequest(r *http.Request) bool {
	cookie, err := r.Cookie(AdminSessionCookie)
	if err != nil {
		return false
	}
	return a.Valid(cookie.Value)
}

// SetCookie attaches a session cookie to the response.
func SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(AdminSessionTTL.Seconds()),
	})
}
