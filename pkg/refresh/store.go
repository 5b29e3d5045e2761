package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence operations the refresh protocol requires.
// Rotate is the sole correctness-critical synchronization primitive in the
// system: a compare-and-swap on (id, current hash, not expired) that must
// report whether exactly one row was updated.
type Store interface {
	// Insert stores a new session row.
	Insert(ctx context.Context, session *Session) error

	// FindByTokenHash returns the non-expired session whose current or
	// previous hash equals digest, joined with the owning user's email and
	// active flag. Returns ErrSessionNotFound when no such row exists.
	FindByTokenHash(ctx context.Context, digest string, now time.Time) (*Session, error)

	// Rotate atomically demotes the current hash to previous, installs
	// nextHash, opens the grace window and extends expiry — but only when
	// the row still carries currentHash and has not expired. Returns false
	// with no error when zero rows matched (a lost race or stale hash).
	Rotate(ctx context.Context, sessionID uuid.UUID, currentHash, nextHash string, graceUntil, expiresAt, now time.Time) (bool, error)

	// RevokeByTokenHash collapses expiry to now for sessions matching the
	// digest in either hash slot.
	RevokeByTokenHash(ctx context.Context, digest string, now time.Time) error

	// RevokeByUserID collapses expiry to now for every session owned by the
	// user.
	RevokeByUserID(ctx context.Context, userID uuid.UUID, now time.Time) error
}
