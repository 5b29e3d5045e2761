package gate

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Gate is an edge middleware that shields private paths: requests with a
// live access token pass through, expired ones trigger a transparent
// refresh round trip against the auth service, and everything else is
// redirected to the login page.
type Gate struct {
	cfg     Config
	cookies *cookie.Manager
	client  *http.Client
	log     *slog.Logger
}

// Option configures optional gate dependencies.
type Option func(*Gate)

// WithHTTPClient replaces the refresh round-trip client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gate) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the gate logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) { g.log = log }
}

// New creates a gate from the config. The cookie manager must resolve the
// same cookie names the auth service writes.
func New(cfg Config, cookies *cookie.Manager, opts ...Option) (*Gate, error) {
	if cfg.RefreshURL == "" {
		return nil, ErrRefreshURLRequired
	}
	if cookies == nil {
		return nil, ErrCookieManagerRequired
	}
	if cfg.ExpiryMargin <= 0 {
		cfg.ExpiryMargin = 5 * time.Second
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.MaintenancePath == "" {
		cfg.MaintenancePath = "/maintenance"
	}

	g := &Gate{
		cfg:     cfg,
		cookies: cookies,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Middleware wraps the upstream handler with the gate checks.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.isPrivate(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if raw, err := g.cookies.Get(r, g.cfg.AccessCookieName); err == nil {
			if exp, ok := accesstoken.PeekExpiry(raw); ok && time.Until(exp) > g.cfg.ExpiryMargin {
				next.ServeHTTP(w, r)
				return
			}
		}

		// No usable access token. Without a refresh cookie there is
		// nothing to try.
		if _, err := g.cookies.Get(r, g.cfg.RefreshCookieName); err != nil {
			g.redirect(w, r, g.cfg.LoginPath)
			return
		}

		g.refreshAndRedirect(w, r)
	})
}

func (g *Gate) isPrivate(path string) bool {
	for _, prefix := range g.cfg.PrivatePrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// refreshAndRedirect performs the refresh round trip and sends the
// browser back to the original URL on success, so the retried request
// carries the fresh cookies.
func (g *Gate) refreshAndRedirect(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, g.cfg.RefreshURL, nil)
	if err != nil {
		g.redirect(w, r, g.cfg.MaintenancePath)
		return
	}
	copyForwardedHeaders(req, r)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.ErrorContext(r.Context(), "refresh round trip failed", logger.Error(err))
		g.redirect(w, r, g.cfg.MaintenancePath)
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	// Cookie updates from the auth service reach the browser even when
	// the refresh was denied, so cleared cookies propagate too.
	for _, value := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", value)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		g.redirect(w, r, r.URL.RequestURI())
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		g.redirect(w, r, g.cfg.MaintenancePath)
	default:
		g.redirect(w, r, g.cfg.LoginPath)
	}
}

func (g *Gate) redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusFound)
}
