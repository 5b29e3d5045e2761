package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// memoryUserStorage is a minimal in-memory UserStorage for tests.
type memoryUserStorage struct {
	mu    sync.Mutex
	users map[string]*auth.User

	failGetUser error
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{users: make(map[string]*auth.User)}
}

func (s *memoryUserStorage) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failGetUser != nil {
		return nil, s.failGetUser
	}

	user, ok := s.users[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *memoryUserStorage) CreateUser(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Email]; ok {
		return auth.ErrEmailAlreadyExists
	}
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *memoryUserStorage) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ID == userID {
			t := at
			user.LastLoginAt = &t
			return nil
		}
	}
	return auth.ErrUserNotFound
}

func (s *memoryUserStorage) setActive(email string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[email]; ok {
		user.IsActive = active
	}
}
