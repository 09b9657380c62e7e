// Package identity resolves the current user. Authentication itself happens
// upstream (the API gateway verifies the session and stamps the request);
// this package only reads the result.
package identity

import (
	"context"
	"net/http"
)

// HeaderName is the request header carrying the authenticated user id.
const HeaderName = "X-Roam-User"

// Provider reports the current user id, if any. No identity is a defined
// state (empty feed), not an error.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Static is a fixed identity, used for per-user engine instances and tests.
type Static string

func (s Static) CurrentUserID(_ context.Context) (string, bool) {
	return string(s), s != ""
}

// FromRequest reads the stamped identity off an HTTP request.
func FromRequest(r *http.Request) (string, bool) {
	id := r.Header.Get(HeaderName)
	return id, id != ""
}
