package gate_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/gate"
)

const testSecret = "edge-gate-test-secret-0123456789"

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	codec, err := accesstoken.NewCodec(testSecret, ttl, time.Minute, nil)
	require.NoError(t, err)
	token, err := codec.Issue(uuid.New(), "user@example.com", accesstoken.Client{})
	require.NoError(t, err)
	return token.Value
}

func newGate(t *testing.T, cfg gate.Config, opts ...gate.Option) *gate.Gate {
	t.Helper()
	if len(cfg.PrivatePrefixes) == 0 {
		cfg.PrivatePrefixes = []string{"/app"}
	}
	g, err := gate.New(cfg, cookie.New(false), opts...)
	require.NoError(t, err)
	return g
}

func upstream() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("upstream"))
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := gate.New(gate.Config{}, cookie.New(false))
	require.ErrorIs(t, err, gate.ErrRefreshURLRequired)

	_, err = gate.New(gate.Config{RefreshURL: "http://auth/refresh"}, nil)
	require.ErrorIs(t, err, gate.ErrCookieManagerRequired)
}

func TestPassThrough(t *testing.T) {
	t.Parallel()

	t.Run("public path needs no token", func(t *testing.T) {
		t.Parallel()
		g := newGate(t, gate.Config{RefreshURL: "http://auth.invalid/refresh"})
		handler := g.Middleware(upstream())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "upstream", rec.Body.String())
	})

	t.Run("fresh token passes", func(t *testing.T) {
		t.Parallel()
		g := newGate(t, gate.Config{RefreshURL: "http://auth.invalid/refresh"})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__acc", Value: issueToken(t, 10*time.Minute)})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLoginRedirect(t *testing.T) {
	t.Parallel()

	t.Run("no cookies at all", func(t *testing.T) {
		t.Parallel()
		g := newGate(t, gate.Config{RefreshURL: "http://auth.invalid/refresh"})
		handler := g.Middleware(upstream())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/dashboard", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("expired token without refresh cookie", func(t *testing.T) {
		t.Parallel()
		g := newGate(t, gate.Config{RefreshURL: "http://auth.invalid/refresh"})
		handler := g.Middleware(upstream())

		// Expires within the 5s safety margin, so it counts as dead.
		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__acc", Value: issueToken(t, 2*time.Second)})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestRefreshRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("success redirects back with propagated cookies", func(t *testing.T) {
		t.Parallel()

		var got *http.Request
		authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Clone(r.Context())
			http.SetCookie(w, &http.Cookie{Name: "__acc", Value: "fresh-access", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "__ref", Value: "fresh-refresh", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
		}))
		defer authSrv.Close()

		g := newGate(t, gate.Config{RefreshURL: authSrv.URL + "/auth/refresh"})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard?tab=billing", nil)
		req.Host = "app.example.com"
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Accept-Language", "en-US")
		req.Header.Set("Authorization", "Bearer should-not-leak")
		req.AddCookie(&http.Cookie{Name: "__acc", Value: issueToken(t, 2*time.Second)})
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "opaque-refresh-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/app/dashboard?tab=billing", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, "fresh-access", cookies[0].Value)
		assert.Equal(t, "fresh-refresh", cookies[1].Value)

		// Only allow-listed headers make the hop.
		require.NotNil(t, got)
		assert.Equal(t, http.MethodPost, got.Method)
		assert.Equal(t, "Mozilla/5.0", got.Header.Get("User-Agent"))
		assert.Equal(t, "en-US", got.Header.Get("Accept-Language"))
		assert.NotEmpty(t, got.Header.Get("Cookie"))
		assert.Equal(t, "app.example.com", got.Header.Get("X-Forwarded-Host"))
		assert.Empty(t, got.Header.Get("Authorization"))
	})

	t.Run("missing access cookie still attempts refresh", func(t *testing.T) {
		t.Parallel()

		authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer authSrv.Close()

		g := newGate(t, gate.Config{RefreshURL: authSrv.URL})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "opaque-refresh-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/app/dashboard", rec.Header().Get("Location"))
	})

	t.Run("denied refresh redirects to login and clears cookies", func(t *testing.T) {
		t.Parallel()

		authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "__acc", Value: "", MaxAge: -1, Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "__ref", Value: "", MaxAge: -1, Path: "/"})
			w.WriteHeader(http.StatusForbidden)
		}))
		defer authSrv.Close()

		g := newGate(t, gate.Config{RefreshURL: authSrv.URL})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "stolen-or-stale"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		require.Len(t, rec.Result().Cookies(), 2)
	})

	t.Run("rate limited refresh goes to maintenance", func(t *testing.T) {
		t.Parallel()

		authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer authSrv.Close()

		g := newGate(t, gate.Config{RefreshURL: authSrv.URL})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "opaque-refresh-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/maintenance", rec.Header().Get("Location"))
	})

	t.Run("auth service outage goes to maintenance", func(t *testing.T) {
		t.Parallel()

		authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer authSrv.Close()

		g := newGate(t, gate.Config{RefreshURL: authSrv.URL})
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "opaque-refresh-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/maintenance", rec.Header().Get("Location"))
	})

	t.Run("unreachable auth service goes to maintenance", func(t *testing.T) {
		t.Parallel()

		g := newGate(t, gate.Config{RefreshURL: "http://127.0.0.1:1/refresh"},
			gate.WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
		handler := g.Middleware(upstream())

		req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__ref", Value: "opaque-refresh-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/maintenance", rec.Header().Get("Location"))
	})
}
