package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SessionUser is what we cache per request in r.Context(). It is rebuilt
// from the users collection on every request by the session manager's
// UserFetcher, so role changes and deactivations take effect immediately.
type SessionUser struct {
	ID          string // users._id as hex
	Name        string
	Email       string
	Role        string // leader | admin | counselor
	CounselorID string // counselors._id as hex, set for counselor-role users
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context. Test helper only;
// production requests get their user from SessionManager.LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func currentURI(r *http.Request) string {
	uri := r.URL.RequestURI()
	if uri == "" {
		return "/"
	}
	return uri
}

// wantsHTML reports whether the client prefers an HTML response.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

func loginRedirectTarget(r *http.Request) string {
	return "/login?return=" + url.QueryEscape(currentURI(r))
}
