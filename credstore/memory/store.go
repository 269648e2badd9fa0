// Package memory implements clinauth.CredentialStore in process memory.
// It backs tests and single-node demos; nothing is persisted.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	clinauth "github.com/caremesh/clinauth"
)

// Store is a mutex-guarded in-memory credential store.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*clinauth.User
	byEmail map[string]string
}

var _ clinauth.CredentialStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*clinauth.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*clinauth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, clinauth.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*clinauth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, clinauth.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) Create(ctx context.Context, u *clinauth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return clinauth.ErrUserExists
	}

	stored := cloneUser(u)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *Store) UpdateLockState(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return clinauth.ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = cloneTime(lockedUntil)
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return clinauth.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// SetActive enables or disables an account.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return clinauth.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func cloneUser(u *clinauth.User) *clinauth.User {
	if u == nil {
		return nil
	}
	out := *u
	out.LockedUntil = cloneTime(u.LockedUntil)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
