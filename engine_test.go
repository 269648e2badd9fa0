package clinauth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/caremesh/clinauth/password"
)

// mockCredentialStore is the in-package credential backend for engine tests.
// Setting fail makes every call report that error, simulating an outage.
type mockCredentialStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]string
	fail    error
}

var _ CredentialStore = (*mockCredentialStore)(nil)

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (m *mockCredentialStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *m.byID[id]
	return &u, nil
}

func (m *mockCredentialStore) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockCredentialStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	email := strings.ToLower(u.Email)
	if _, exists := m.byEmail[email]; exists {
		return ErrUserExists
	}
	copied := *u
	m.byID[u.ID] = &copied
	m.byEmail[email] = u.ID
	return nil
}

func (m *mockCredentialStore) UpdateLockState(_ context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *mockCredentialStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockCredentialStore) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *mockCredentialStore) user(t *testing.T, id string) User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		t.Fatalf("no user %s in store", id)
	}
	return *u
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.Token.RefreshSecret = []byte("test-refresh-secret-0123456789abcde")
	cfg.Password.Params = password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

type testEnv struct {
	engine *Engine
	users  *mockCredentialStore
	redis  *miniredis.Miniredis
}

func newTestEngine(t *testing.T, mutate func(*Config), opts ...func(*Builder)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testEngineConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	users := newMockCredentialStore()

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(users)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, users: users, redis: mr}
}

// setClock pins the engine and its token codec to the given time source.
func (env *testEnv) setClock(now func() time.Time) {
	env.engine.now = now
	env.engine.codec.SetClock(now)
}

func (env *testEnv) register(t *testing.T, email, pass, role string) *TokenPair {
	t.Helper()
	pair, err := env.engine.Register(context.Background(), email, pass, role)
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return pair
}

const testPassword = "Correct-horse-7"
