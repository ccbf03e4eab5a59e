package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error represents an OAuth 2.0 error response.
type Error struct {
	Code        string // OAuth error code (e.g. "invalid_request", "invalid_grant")
	Description string // human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a new OAuth error.
func NewError(code, description string, status int) *Error {
	return &Error{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common OAuth errors as reusable constructors.
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters.
	ErrInvalidRequest = func(desc string) *Error {
		return NewError("invalid_request", desc, http.StatusBadRequest)
	}

	// ErrInvalidGrant indicates the authorization code is invalid, expired, or failed PKCE.
	ErrInvalidGrant = func(desc string) *Error {
		return NewError("invalid_grant", desc, http.StatusBadRequest)
	}

	// ErrInvalidClient indicates client identification failed.
	ErrInvalidClient = func(desc string) *Error {
		return NewError("invalid_client", desc, http.StatusUnauthorized)
	}

	// ErrInvalidToken indicates the access token is invalid or expired.
	ErrInvalidToken = func(desc string) *Error {
		return NewError("invalid_token", desc, http.StatusUnauthorized)
	}

	// ErrUnsupportedGrantType indicates the grant type is not supported.
	ErrUnsupportedGrantType = func(desc string) *Error {
		return NewError("unsupported_grant_type", desc, http.StatusBadRequest)
	}

	// ErrAccessDenied indicates the user or authorization server denied the request.
	ErrAccessDenied = func(desc string) *Error {
		return NewError("access_denied", desc, http.StatusForbidden)
	}
)

// WriteError writes an OAuth error as the RFC-shaped JSON body with the
// error's HTTP status.
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            err.Code,
		ErrorDescription: err.Description,
	})
}
