package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore is an in-process [Store] for tests and single-process tooling.
// All operations hold one mutex, which gives Consume the same exactly-one-
// winner guarantee the Redis implementation gets from Lua.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	byUser  map[string]map[string]struct{}
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		byUser:  make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// SetClock overrides the store's time source. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	s.entries[sess.ID] = &memoryEntry{
		sess:      copied,
		expiresAt: s.now().Add(ttl),
	}

	if s.byUser[sess.UserID] == nil {
		s.byUser[sess.UserID] = make(map[string]struct{})
	}
	s.byUser[sess.UserID][sess.ID] = struct{}{}

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	copied := entry.sess
	return &copied, nil
}

func (s *MemoryStore) Touch(ctx context.Context, sessionID string, at time.Time, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(sessionID)
	if !ok {
		return ErrNotFound
	}

	entry.sess.LastActivity = at.Unix()

	next := s.now().Add(ttl)
	if absolute := time.Unix(entry.sess.ExpiresAt, 0); absolute.Before(next) {
		next = absolute
	}
	entry.expiresAt = next

	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	s.remove(sessionID, entry.sess.UserID)

	copied := entry.sess
	return &copied, nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[sessionID]; ok {
		s.remove(sessionID, entry.sess.UserID)
	}

	return nil
}

func (s *MemoryStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byUser[userID] {
		delete(s.entries, id)
	}
	delete(s.byUser, userID)

	return nil
}

func (s *MemoryStore) SessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id := range s.byUser[userID] {
		if _, ok := s.live(id); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// live returns the entry if it exists and has not expired, expiring it
// lazily otherwise. Caller must hold the mutex.
func (s *MemoryStore) live(sessionID string) (*memoryEntry, bool) {
	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) || entry.sess.Expired(s.now()) {
		s.remove(sessionID, entry.sess.UserID)
		return nil, false
	}
	return entry, true
}

func (s *MemoryStore) remove(sessionID, userID string) {
	delete(s.entries, sessionID)
	if set, ok := s.byUser[userID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
}
