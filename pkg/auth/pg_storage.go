package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/pg"
)

// PGUserStorage implements UserStorage on a pgx connection pool.
type PGUserStorage struct {
	pool *pgxpool.Pool
}

// NewPGUserStorage creates a Postgres-backed user storage.
func NewPGUserStorage(pool *pgxpool.Pool) *PGUserStorage {
	return &PGUserStorage{pool: pool}
}

func (s *PGUserStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id, email, password_hash, is_active, last_login_at, created_at
		FROM users
		WHERE email = $1`

	var user User
	err := s.pool.QueryRow(ctx, q, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsActive,
		&user.LastLoginAt, &user.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *PGUserStorage) CreateUser(ctx context.Context, user *User) error {
	const q = `
		INSERT INTO users (id, email, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q, user.ID, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailAlreadyExists
		}
		return err
	}

	return nil
}

func (s *PGUserStorage) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	const q = `UPDATE users SET last_login_at = $2 WHERE id = $1`

	_, err := s.pool.Exec(ctx, q, userID, at)
	return err
}
