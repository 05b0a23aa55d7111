package inbound

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/folio/internal/pkg/hash"
	"github.com/shandysiswandi/folio/internal/pkg/router"
)

const DefaultCookieName = "_session"

// SessionCookie carries the session handle as "<id>.<mac>". A value whose MAC
// does not verify is treated as absent.
type SessionCookie struct {
	name   string
	secure bool
	mac    hash.Hash
}

func NewSessionCookie(name string, secure bool, mac hash.Hash) *SessionCookie {
	if name == "" {
		name = DefaultCookieName
	}

	return &SessionCookie{name: name, secure: secure, mac: mac}
}

// Read returns the session id, empty when missing or tampered with.
func (c *SessionCookie) Read(r *router.Request) string {
	raw := r.GetCookie(c.name)

	id, sig, ok := strings.Cut(raw, ".")
	if !ok || id == "" || sig == "" {
		return ""
	}

	if !c.mac.Verify(sig, id) {
		return ""
	}

	return id
}

// Set issues the handle as a browser-session cookie. It outlives the code
// deadline so an expired or locked session is still reported as such.
func (c *SessionCookie) Set(id string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    id + "." + c.mac.Hash(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *SessionCookie) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
