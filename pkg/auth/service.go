package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/refresh"
)

const defaultBcryptCost = 12

// Service orchestrates the dual-token session protocol: it composes the
// access token codec, the refresh session manager and user storage into
// login/refresh/logout operations. All cryptographic failures surface as
// ErrForbidden or ErrInvalidCredentials; backend failures pass through
// wrapped so the HTTP layer can map them to a generic service-unavailable
// response.
type Service struct {
	users      UserStorage
	sessions   *refresh.Manager
	codec      *accesstoken.Codec
	log        *slog.Logger
	bcryptCost int
	// Hashing this at construction gives the dummy comparison for unknown
	// emails the same cost profile as a real one.
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService creates the session orchestrator.
func NewService(users UserStorage, sessions *refresh.Manager, codec *accesstoken.Codec, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, ErrStorageRequired
	}
	if sessions == nil {
		return nil, ErrSessionsRequired
	}
	if codec == nil {
		return nil, ErrCodecRequired
	}

	s := &Service{
		users:      users,
		sessions:   sessions,
		codec:      codec,
		log:        logger.NewDiscard(),
		bcryptCost: defaultBcryptCost,
	}

	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("authkit-dummy-credential"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Register creates a new user account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("auth: failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("auth: failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a fresh refresh session plus a
// sibling access token. A bcrypt comparison runs even when the email is
// unknown so response timing does not reveal which emails exist; unknown
// email, wrong password and inactive account are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, email, password string, client Client) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	refreshToken, err := s.sessions.Create(ctx, user.ID, client.IP, client.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create refresh session: %w", err)
	}

	access, err := s.codec.Issue(user.ID, user.Email, accesstoken.Client(client))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to issue access token: %w", err)
	}

	// Best effort: a failed timestamp write must not fail the login.
	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.log.ErrorContext(ctx, "failed to update last login",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	return &LoginResult{
		User:         UserInfo{UserID: user.ID, Email: user.Email},
		AccessToken:  access,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh runs the rotation state machine for a presented refresh token:
//
//	resolve -> matched current  -> rotate -> new refresh cookie
//	        -> matched previous -> skip rotation, reuse identity
//	rotate lost race -> resolve again -> matched previous in grace -> proceed
//	                                  -> anything else             -> forbidden
//
// The re-resolve after a lost race distinguishes "a concurrent refresh
// already advanced this session" (recoverable) from "stale or replayed
// token" (terminal). Rotation is never retried beyond that single
// re-resolve; a second rotation attempt could itself create a new race.
func (s *Service) Refresh(ctx context.Context, rawToken string, client Client) (*RefreshResult, error) {
	if rawToken == "" {
		return nil, ErrForbidden
	}

	resolved, err := s.sessions.Resolve(ctx, rawToken)
	if err != nil {
		if errors.Is(err, refresh.ErrSessionNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("auth: failed to resolve refresh session: %w", err)
	}

	active := resolved
	result := &RefreshResult{}

	if !resolved.UsedPrevious {
		rotated, err := s.sessions.Rotate(ctx, resolved.SessionID, resolved.PresentedHash)
		switch {
		case err == nil:
			result.RefreshToken = &rotated
		case errors.Is(err, refresh.ErrRotationConflict):
			// Lost the race. If a concurrent refresh advanced the session,
			// the presented token now matches the previous hash within its
			// grace window; anything else means the token is dead.
			fallback, err := s.sessions.Resolve(ctx, rawToken)
			if err != nil || !fallback.UsedPrevious {
				return nil, ErrForbidden
			}
			active = fallback
		default:
			return nil, fmt.Errorf("auth: failed to rotate refresh session: %w", err)
		}
	}

	access, err := s.codec.Issue(active.UserID, active.Email, accesstoken.Client(client))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to issue access token: %w", err)
	}
	result.AccessToken = access

	return result, nil
}

// Authenticate verifies an access token against the presenting client and
// returns the explicit authenticated context. Every verification failure
// collapses into ErrForbidden.
func (s *Service) Authenticate(rawToken string, client Client) (*AuthenticatedContext, error) {
	if rawToken == "" {
		return nil, ErrForbidden
	}

	identity, err := s.codec.Verify(rawToken, accesstoken.Client(client))
	if err != nil {
		return nil, ErrForbidden
	}

	return &AuthenticatedContext{
		User:    UserInfo{UserID: identity.UserID, Email: identity.Email},
		Session: SessionInfo{ExpiresAt: identity.ExpiresAt, RotateAt: identity.RotateAt},
	}, nil
}

// Logout revokes the refresh session matching the presented token in
// either hash slot. An empty token is a no-op: logout is idempotent and
// the absence of a cookie is not an error.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	if err := s.sessions.RevokeByToken(ctx, rawToken); err != nil {
		return fmt.Errorf("auth: failed to revoke refresh session: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh session owned by the user.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("auth: failed to revoke user sessions: %w", err)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address for storage and
// lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
