package refresh

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

const (
	minSecretLength = 16
	tokenBytes      = 32 // 256 bits of entropy per token

	defaultMaxAge      = 7 * 24 * time.Hour
	defaultGraceWindow = 30 * time.Second
)

// Manager issues, resolves and rotates server-side refresh sessions over a
// Store. Raw tokens are high-entropy opaque strings; only their keyed
// digests are persisted.
type Manager struct {
	store       Store
	secret      []byte
	maxAge      time.Duration
	graceWindow time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxAge sets the refresh session lifetime, extended on every rotation.
func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) { m.maxAge = d }
}

// WithGraceWindow sets how long the immediately-previous token keeps
// resolving identity after a rotation.
func WithGraceWindow(d time.Duration) Option {
	return func(m *Manager) { m.graceWindow = d }
}

// NewManager creates a refresh session manager. The secret keys the token
// digests and must be at least 16 characters.
func NewManager(store Store, secret string, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}

	m := &Manager{
		store:       store,
		secret:      []byte(secret),
		maxAge:      defaultMaxAge,
		graceWindow: defaultGraceWindow,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Create issues a new refresh session for the user and returns the raw
// token. One session row per login event; client metadata is recorded for
// later inspection, not for validation.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, ip, userAgent string) (Token, error) {
	raw, err := generateToken()
	if err != nil {
		return Token{}, err
	}

	now := time.Now()
	expiresAt := now.Add(m.maxAge)

	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: m.hash(raw),
		ExpiresAt: expiresAt,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.store.Insert(ctx, session); err != nil {
		return Token{}, err
	}

	return Token{Value: raw, ExpiresAt: expiresAt}, nil
}

// Resolve matches a presented raw token against a live session. It rejects
// tokens owned by inactive users and previous-hash matches whose grace
// window has closed or was never opened. The returned Resolved reports
// which hash slot matched so callers know whether rotation is allowed.
func (m *Manager) Resolve(ctx context.Context, raw string) (*Resolved, error) {
	digest := m.hash(raw)
	now := time.Now()

	session, err := m.store.FindByTokenHash(ctx, digest, now)
	if err != nil {
		return nil, err
	}

	if !session.UserActive {
		return nil, ErrSessionNotFound
	}

	matchesCurrent := constantTimeEqual(session.TokenHash, digest)
	matchesPrevious := session.PreviousTokenHash != "" &&
		constantTimeEqual(session.PreviousTokenHash, digest)

	if !matchesCurrent && !matchesPrevious {
		return nil, ErrSessionNotFound
	}

	if !matchesCurrent {
		if session.GraceUntil.IsZero() || !session.GraceUntil.After(now) {
			return nil, ErrSessionNotFound
		}
	}

	return &Resolved{
		SessionID:     session.ID,
		UserID:        session.UserID,
		Email:         session.Email,
		PresentedHash: digest,
		UsedPrevious:  !matchesCurrent,
	}, nil
}

// Rotate replaces the session's current token in a single conditional
// update: the presented hash must still be the current hash and the session
// must not be expired. A zero-row update yields ErrRotationConflict — the
// expected outcome of losing a race to a concurrent refresh, not a fault.
func (m *Manager) Rotate(ctx context.Context, sessionID uuid.UUID, presentedHash string) (Token, error) {
	raw, err := generateToken()
	if err != nil {
		return Token{}, err
	}

	now := time.Now()
	expiresAt := now.Add(m.maxAge)
	graceUntil := now.Add(m.graceWindow)

	ok, err := m.store.Rotate(ctx, sessionID, presentedHash, m.hash(raw), graceUntil, expiresAt, now)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, ErrRotationConflict
	}

	return Token{Value: raw, ExpiresAt: expiresAt}, nil
}

// RevokeByToken soft-revokes the session matching the raw token in either
// hash slot by collapsing its expiry. Unknown tokens are a no-op.
func (m *Manager) RevokeByToken(ctx context.Context, raw string) error {
	return m.store.RevokeByTokenHash(ctx, m.hash(raw), time.Now())
}

// RevokeUser soft-revokes every session owned by the user.
func (m *Manager) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.RevokeByUserID(ctx, userID, time.Now())
}

func (m *Manager) hash(raw string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
