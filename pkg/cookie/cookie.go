package cookie

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// hostPrefix is the cookie name prefix that locks a cookie to the exact
// host over a secure connection. Applied only in production because the
// prefix requires Secure, which breaks plain-HTTP development.
const hostPrefix = "__Host-"

// Manager reads and writes HTTP cookies with consistent security defaults:
// HttpOnly, SameSite=Lax, Path=/ and, in production, the Secure flag plus a
// __Host- locked name.
type Manager struct {
	defaults   Options
	production bool
}

// New creates a cookie manager. When production is true every cookie is
// Secure and names resolve with the __Host- prefix.
func New(production bool, opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   production,
	}
	defaults = applyOptions(defaults, opts)

	return &Manager{
		defaults:   defaults,
		production: production,
	}
}

// ResolveName returns the transport name for a logical cookie name,
// applying the host-locked prefix convention in production.
func (m *Manager) ResolveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "session"
	}
	if !m.production || strings.HasPrefix(name, hostPrefix) {
		return name
	}
	return hostPrefix + name
}

// Set writes a cookie under the resolved name.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     m.ResolveName(name),
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get returns the cookie value under the resolved name. Empty or
// whitespace-only values are treated as absent.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(m.ResolveName(name))
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}

	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", ErrCookieNotFound
	}
	return value, nil
}

// Delete expires the cookie immediately. Deleting an absent cookie is a
// harmless no-op on the client.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.ResolveName(name),
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	})
}
