package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	"github.com/dmitrymomot/authkit/pkg/refresh"
)

// User is the account record consumed by the orchestrator.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// Client carries the request attributes used for fingerprinting and session
// metadata.
type Client struct {
	IP        string
	UserAgent string
}

// UserInfo identifies an authenticated user.
type UserInfo struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

// SessionInfo describes the access token's lifetime to the client.
type SessionInfo struct {
	ExpiresAt time.Time `json:"expiresAt"`
	RotateAt  time.Time `json:"rotateAt"`
}

// AuthenticatedContext is the explicit result of authenticating a request.
// It is threaded into handlers rather than stashed in ambient request
// state.
type AuthenticatedContext struct {
	User    UserInfo
	Session SessionInfo
}

// LoginResult carries both freshly issued credentials after a successful
// login.
type LoginResult struct {
	User         UserInfo
	AccessToken  accesstoken.Token
	RefreshToken refresh.Token
}

// RefreshResult carries the outcome of a refresh call. RefreshToken is nil
// when the session was resolved through the grace window and no cookie
// change must happen.
type RefreshResult struct {
	AccessToken  accesstoken.Token
	RefreshToken *refresh.Token
}
