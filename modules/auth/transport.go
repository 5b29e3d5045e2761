package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	authsvc "github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/clientip"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/refresh"
)

func clientFromRequest(r *http.Request) authsvc.Client {
	return authsvc.Client{
		IP:        clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	}
}

// cookieMaxAge converts an absolute expiry into a cookie MaxAge, never
// below one second so the browser does not treat the cookie as a session
// cookie or drop it early.
func cookieMaxAge(expiresAt time.Time) int {
	seconds := int(time.Until(expiresAt).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (m *Module) setAccessCookie(w http.ResponseWriter, token accesstoken.Token) {
	m.cookies.Set(w, m.cfg.AccessCookieName, token.Value,
		cookie.WithMaxAge(cookieMaxAge(token.ExpiresAt)))
}

func (m *Module) setRefreshCookie(w http.ResponseWriter, token refresh.Token) {
	m.cookies.Set(w, m.cfg.RefreshCookieName, token.Value,
		cookie.WithMaxAge(cookieMaxAge(token.ExpiresAt)))
}

func (m *Module) clearAuthCookies(w http.ResponseWriter) {
	m.cookies.Delete(w, m.cfg.AccessCookieName)
	m.cookies.Delete(w, m.cfg.RefreshCookieName)
}

type errorResponse struct {
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:   "VALIDATION_ERROR",
		Error:  "The request payload is invalid.",
		Fields: fields,
	})
}
