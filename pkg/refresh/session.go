package refresh

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logical refresh lineage: a single row that is mutated in
// place by rotation and revoked by collapsing its expiry. TokenHash holds
// the digest of the currently valid token; PreviousTokenHash and GraceUntil
// are set together by rotation and describe the immediately prior token's
// grace window.
type Session struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Email             string
	UserActive        bool
	TokenHash         string
	PreviousTokenHash string
	GraceUntil        time.Time
	ExpiresAt         time.Time
	IP                string
	UserAgent         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Token is a raw refresh token handed to the client. Only its digest is
// ever persisted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Resolved is the outcome of matching a presented token against a live
// session. UsedPrevious reports that the match came through the grace
// window: the identity is valid but the token must not be rotated again.
type Resolved struct {
	SessionID     uuid.UUID
	UserID        uuid.UUID
	Email         string
	PresentedHash string
	UsedPrevious  bool
}
