package oauth

import (
	"context"
	"net/http"
)

// contextKey is the type for context keys.
type contextKey string

// tokenContextKey is the key under which the validated access token is
// stored in the request context.
const tokenContextKey contextKey = "access_token"

// RequireToken is middleware that validates the bearer token on the
// request and stores the resolved AccessToken in the context. Requests
// without a valid token are answered with an RFC-shaped 401.
func (h *Handler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		at, ok := h.tokenFromRequest(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			WriteError(w, ErrInvalidToken("missing or invalid access token"))
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, at)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromContext retrieves the validated access token stored by
// RequireToken.
func TokenFromContext(ctx context.Context) (*AccessToken, bool) {
	at, ok := ctx.Value(tokenContextKey).(*AccessToken)
	return at, ok
}

// RequireAdmin is middleware that gates a route behind a live admin
// session cookie. Bearer tokens do not satisfy it; the two credential
// types never cross over.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.admins.FromRequest(r) {
			WriteError(w, NewError("unauthorized", "admin session required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}
