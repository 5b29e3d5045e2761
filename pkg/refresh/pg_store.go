package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/pg"
)

// PGStore implements Store on a pgx connection pool. Rotation is a single
// conditional UPDATE keyed by (id, current hash, not expired); its
// RowsAffected count is the compare-and-swap outcome.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed refresh session store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Insert(ctx context.Context, session *Session) error {
	const q = `
		INSERT INTO user_sessions (id, user_id, token_hash, expires_at, ip, agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		session.ID, session.UserID, session.TokenHash, session.ExpiresAt,
		session.IP, session.UserAgent, session.CreatedAt, session.UpdatedAt,
	)
	return err
}

func (s *PGStore) FindByTokenHash(ctx context.Context, digest string, now time.Time) (*Session, error) {
	const q = `
		SELECT s.id, s.user_id, u.email, u.is_active,
		       s.token_hash, COALESCE(s.previous_token_hash, ''), s.grace_until,
		       s.expires_at, COALESCE(s.ip, ''), COALESCE(s.agent, ''),
		       s.created_at, s.updated_at
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.expires_at > $2
		  AND (s.token_hash = $1 OR s.previous_token_hash = $1)
		LIMIT 1`

	var (
		session    Session
		graceUntil *time.Time
	)
	err := s.pool.QueryRow(ctx, q, digest, now).Scan(
		&session.ID, &session.UserID, &session.Email, &session.UserActive,
		&session.TokenHash, &session.PreviousTokenHash, &graceUntil,
		&session.ExpiresAt, &session.IP, &session.UserAgent,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if graceUntil != nil {
		session.GraceUntil = *graceUntil
	}

	return &session, nil
}

func (s *PGStore) Rotate(ctx context.Context, sessionID uuid.UUID, currentHash, nextHash string, graceUntil, expiresAt, now time.Time) (bool, error) {
	const q = `
		UPDATE user_sessions
		SET previous_token_hash = token_hash,
		    token_hash = $3,
		    grace_until = $4,
		    expires_at = $5,
		    updated_at = $6
		WHERE id = $1
		  AND token_hash = $2
		  AND expires_at > $6`

	tag, err := s.pool.Exec(ctx, q, sessionID, currentHash, nextHash, graceUntil, expiresAt, now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) RevokeByTokenHash(ctx context.Context, digest string, now time.Time) error {
	const q = `
		UPDATE user_sessions
		SET expires_at = $2, updated_at = $2
		WHERE token_hash = $1 OR previous_token_hash = $1`

	_, err := s.pool.Exec(ctx, q, digest, now)
	return err
}

func (s *PGStore) RevokeByUserID(ctx context.Context, userID uuid.UUID, now time.Time) error {
	const q = `
		UPDATE user_sessions
		SET expires_at = $2, updated_at = $2
		WHERE user_id = $1 AND expires_at > $2`

	_, err := s.pool.Exec(ctx, q, userID, now)
	return err
}
