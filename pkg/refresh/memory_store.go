package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-process map. It exists for tests
// and local development; rotation is serialized under a single mutex which
// gives the same exactly-one-winner semantics as the conditional UPDATE in
// the Postgres store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	users    map[uuid.UUID]memoryUser
}

type memoryUser struct {
	email  string
	active bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*Session),
		users:    make(map[uuid.UUID]memoryUser),
	}
}

// PutUser registers the user metadata joined into FindByTokenHash results.
func (s *MemoryStore) PutUser(id uuid.UUID, email string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = memoryUser{email: email, active: active}
}

func (s *MemoryStore) Insert(ctx context.Context, session *Session) error {
	if session == nil || session.TokenHash == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByTokenHash(ctx context.Context, digest string, now time.Time) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			continue
		}
		if session.TokenHash != digest && session.PreviousTokenHash != digest {
			continue
		}

		cp := *session
		if user, ok := s.users[session.UserID]; ok {
			cp.Email = user.email
			cp.UserActive = user.active
		}
		return &cp, nil
	}

	return nil, ErrSessionNotFound
}

func (s *MemoryStore) Rotate(ctx context.Context, sessionID uuid.UUID, currentHash, nextHash string, graceUntil, expiresAt, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.TokenHash != currentHash || !session.ExpiresAt.After(now) {
		return false, nil
	}

	session.PreviousTokenHash = session.TokenHash
	session.TokenHash = nextHash
	session.GraceUntil = graceUntil
	session.ExpiresAt = expiresAt
	session.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) RevokeByTokenHash(ctx context.Context, digest string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.TokenHash == digest || session.PreviousTokenHash == digest {
			session.ExpiresAt = now
			session.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemoryStore) RevokeByUserID(ctx context.Context, userID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.UserID == userID {
			session.ExpiresAt = now
			session.UpdatedAt = now
		}
	}
	return nil
}
