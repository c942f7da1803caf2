package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"dishpatch.dev/internal/ids"
)

// UserStore is the externally owned credential record collaborator. Email
// uniqueness is case-insensitive and, like phone uniqueness, must be enforced
// atomically by the implementation; the core performs no locking of its own.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// MemoryStore is an in-process UserStore for tests and DSN-less dev runs.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	byPhone map[string]string
	now     func() time.Time
}

var _ UserStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryStore) FindByPhone(ctx context.Context, phone string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return ErrAlreadyExists
	}
	if user.Phone != "" {
		if _, exists := s.byPhone[user.Phone]; exists {
			return ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.byID[user.ID] = cloneUser(user)
	s.byEmail[key] = user.ID
	if user.Phone != "" {
		s.byPhone[user.Phone] = user.ID
	}
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	return nil
}

func cloneUser(u *User) *User {
	clone := *u
	return &clone
}
