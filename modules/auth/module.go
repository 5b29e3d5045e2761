package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

// Config holds the HTTP-facing knobs of the auth module. Cookie names are
// logical names; the cookie manager applies the __Host- prefix in
// production.
type Config struct {
	AccessCookieName  string        `env:"AUTH_ACCESS_COOKIE_NAME" envDefault:"__acc"`
	RefreshCookieName string        `env:"AUTH_REFRESH_COOKIE_NAME" envDefault:"__ref"`
	LoginRateLimit    int           `env:"AUTH_LOGIN_RATE_LIMIT" envDefault:"10"`
	RegisterRateLimit int           `env:"AUTH_REGISTER_RATE_LIMIT" envDefault:"5"`
	RefreshRateLimit  int           `env:"AUTH_REFRESH_RATE_LIMIT" envDefault:"30"`
	RateLimitWindow   time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Module wires the session orchestrator to HTTP: routing, cookie
// transport, request validation and per-endpoint rate limits.
type Module struct {
	cfg     Config
	svc     *authsvc.Service
	cookies *cookie.Manager
	log     *slog.Logger

	limitLogin    func(http.Handler) http.Handler
	limitRegister func(http.Handler) http.Handler
	limitRefresh  func(http.Handler) http.Handler
}

// Option configures optional module dependencies.
type Option func(*Module)

// WithLogger sets the module logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) { m.log = log }
}

// WithRateLimitStore enables per-endpoint rate limiting backed by the
// given counter store. Without it the endpoints are unlimited.
func WithRateLimitStore(store ratelimit.Store) Option {
	return func(m *Module) {
		key := ratelimit.Composite(ratelimit.ByPath, ratelimit.ByClientIP)
		m.limitLogin = limitMiddleware(store, m.cfg.LoginRateLimit, m.cfg.RateLimitWindow, key)
		m.limitRegister = limitMiddleware(store, m.cfg.RegisterRateLimit, m.cfg.RateLimitWindow, key)
		m.limitRefresh = limitMiddleware(store, m.cfg.RefreshRateLimit, m.cfg.RateLimitWindow, key)
	}
}

// NewModule creates the auth HTTP module.
func NewModule(cfg Config, svc *authsvc.Service, cookies *cookie.Manager, opts ...Option) (*Module, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	if cookies == nil {
		return nil, ErrCookieManagerRequired
	}
	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = "__acc"
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = "__ref"
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	m := &Module{
		cfg:           cfg,
		svc:           svc,
		cookies:       cookies,
		log:           logger.NewDiscard(),
		limitLogin:    passthrough,
		limitRegister: passthrough,
		limitRefresh:  passthrough,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Handle returns the module router, suitable for mounting under /auth.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.With(m.limitLogin).Post("/login", m.login)
	r.With(m.limitRegister).Post("/register", m.register)
	r.With(m.limitRefresh).Post("/refresh", m.refresh)
	r.Post("/logout", m.logout)
	r.Post("/logout-all", m.logoutAll)
	r.Get("/session", m.session)

	return r
}

func limitMiddleware(store ratelimit.Store, limit int, window time.Duration, key ratelimit.KeyFunc) func(http.Handler) http.Handler {
	limiter, err := ratelimit.NewWindow(store, limit, window)
	if err != nil {
		return passthrough
	}
	return ratelimit.Middleware(limiter, key)
}

func passthrough(next http.Handler) http.Handler { return next }
