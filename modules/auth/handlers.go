package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	authsvc "github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Password bounds: bcrypt rejects inputs over 72 bytes, so the upper
// bound is enforced here instead of surfacing a hashing error.
const (
	minPasswordLength = 5
	maxPasswordLength = 72
	maxBodyBytes      = 64 << 10
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsRequest) validate() map[string]string {
	fields := make(map[string]string)
	if !emailPattern.MatchString(authsvc.NormalizeEmail(req.Email)) {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "must be at least 5 characters"
	} else if len(req.Password) > maxPasswordLength {
		fields["password"] = "must be at most 72 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON.")
		return req, false
	}
	if fields := req.validate(); fields != nil {
		writeValidationError(w, fields)
		return req, false
	}
	return req, true
}

type sessionResponse struct {
	User    authsvc.UserInfo    `json:"user"`
	Session authsvc.SessionInfo `json:"session"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (m *Module) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := m.svc.Login(r.Context(), req.Email, req.Password, clientFromRequest(r))
	switch {
	case err == nil:
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
		return
	default:
		m.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Temporarily unavailable, please try again.")
		return
	}

	m.setAccessCookie(w, result.AccessToken)
	m.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		User: result.User,
		Session: authsvc.SessionInfo{
			ExpiresAt: result.AccessToken.ExpiresAt,
			RotateAt:  result.AccessToken.RotateAt,
		},
	})
}

func (m *Module) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := m.svc.Register(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, authsvc.ErrEmailAlreadyExists):
		writeValidationError(w, map[string]string{"email": "is already registered"})
		return
	default:
		m.log.ErrorContext(r.Context(), "registration failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Temporarily unavailable, please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]authsvc.UserInfo{
		"user": {UserID: user.ID, Email: user.Email},
	})
}

func (m *Module) refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := m.cookies.Get(r, m.cfg.RefreshCookieName)
	if err != nil {
		m.forbidden(w)
		return
	}

	result, err := m.svc.Refresh(r.Context(), raw, clientFromRequest(r))
	switch {
	case err == nil:
	case errors.Is(err, authsvc.ErrForbidden):
		m.forbidden(w)
		return
	default:
		m.log.ErrorContext(r.Context(), "refresh failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Temporarily unavailable, please try again.")
		return
	}

	m.setAccessCookie(w, result.AccessToken)
	if result.RefreshToken != nil {
		m.setRefreshCookie(w, *result.RefreshToken)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) logout(w http.ResponseWriter, r *http.Request) {
	// Revocation is best effort: the cookies are cleared either way so a
	// storage hiccup cannot keep a browser logged in.
	if raw, err := m.cookies.Get(r, m.cfg.RefreshCookieName); err == nil {
		if err := m.svc.Logout(r.Context(), raw); err != nil {
			m.log.ErrorContext(r.Context(), "session revocation failed", logger.Error(err))
		}
	}

	m.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (m *Module) logoutAll(w http.ResponseWriter, r *http.Request) {
	authed, ok := m.authenticate(w, r)
	if !ok {
		return
	}

	if err := m.svc.LogoutAll(r.Context(), authed.User.UserID); err != nil {
		m.log.ErrorContext(r.Context(), "logout-all failed",
			logger.Error(err), logger.UserID(authed.User.UserID))
	}

	m.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (m *Module) session(w http.ResponseWriter, r *http.Request) {
	authed, ok := m.authenticate(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		User:    authed.User,
		Session: authed.Session,
	})
}

// authenticate resolves the request's access cookie. On any failure it
// answers with a uniform 403 and clears both cookies.
func (m *Module) authenticate(w http.ResponseWriter, r *http.Request) (*authsvc.AuthenticatedContext, bool) {
	raw, err := m.cookies.Get(r, m.cfg.AccessCookieName)
	if err != nil {
		m.forbidden(w)
		return nil, false
	}

	authed, err := m.svc.Authenticate(raw, clientFromRequest(r))
	if err != nil {
		m.forbidden(w)
		return nil, false
	}
	return authed, true
}

func (m *Module) forbidden(w http.ResponseWriter) {
	m.clearAuthCookies(w)
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Access denied.")
}
