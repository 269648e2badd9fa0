package clinauth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/caremesh/clinauth/password"
	"github.com/caremesh/clinauth/rbac"
	"github.com/caremesh/clinauth/session"
	"github.com/caremesh/clinauth/token"
)

// Builder assembles an [Engine]. A typical production setup:
//
//	eng, err := clinauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithCredentialStore(store).
//		Build()
type Builder struct {
	config Config

	redis        *redis.Client
	sessionStore session.Store
	users        CredentialStore
	auditSink    AuditSink
	registerer   prometheus.Registerer

	roles     map[string][]string
	endpoints []rbac.EndpointRule
	scopeOpts []rbac.Option

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore supplies a session store directly, bypassing Redis.
// Intended for tests and single-process deployments.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithCredentialStore supplies the user record backend.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.users = store
	return b
}

// WithAuditSink supplies the sink for audit events. Setting a sink enables
// the audit pipeline.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithRoles replaces the default role-permission map.
func (b *Builder) WithRoles(roles map[string][]string) *Builder {
	b.roles = roles
	return b
}

// WithEndpoints replaces the default endpoint permission table.
func (b *Builder) WithEndpoints(rules []rbac.EndpointRule) *Builder {
	b.endpoints = rules
	return b
}

// WithScopePredicate registers a scope refinement for a role/resource pair.
func (b *Builder) WithScopePredicate(role, resource string, p rbac.ScopePredicate) *Builder {
	b.scopeOpts = append(b.scopeOpts, rbac.WithScopePredicate(role, resource, p))
	return b
}

// WithMetrics registers Prometheus collectors with reg and enables metric
// updates on every engine operation.
func (b *Builder) WithMetrics(reg prometheus.Registerer) *Builder {
	b.registerer = reg
	return b
}

// Build validates the configuration, wires the components, and returns a
// ready Engine. The builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("credential store required")
	}
	if b.redis == nil && b.sessionStore == nil {
		return nil, errors.New("redis client or session store required")
	}

	store := b.sessionStore
	if store == nil {
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	roles := b.roles
	if roles == nil {
		roles = rbac.DefaultRoles()
	}
	endpoints := b.endpoints
	if endpoints == nil {
		endpoints = rbac.DefaultEndpoints()
	}
	resolver := rbac.NewResolver(roles, endpoints, b.scopeOpts...)

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password.Params)
	if err != nil {
		return nil, err
	}

	// Hash a throwaway random password once so that logins against unknown
	// emails can run a verification of realistic cost.
	decoy := make([]byte, 24)
	if _, err := rand.Read(decoy); err != nil {
		return nil, fmt.Errorf("generate decoy password: %w", err)
	}
	decoyHash, err := hasher.Hash(fmt.Sprintf("%x", decoy))
	if err != nil {
		return nil, fmt.Errorf("hash decoy password: %w", err)
	}

	var metrics *Metrics
	if b.registerer != nil {
		metrics = NewMetrics(b.registerer)
	}

	engine := &Engine{
		cfg:       cfg,
		codec:     codec,
		sessions:  store,
		users:     b.users,
		hasher:    hasher,
		policy:    cfg.Password.Policy,
		lockout:   LockoutPolicy{Threshold: cfg.Lockout.Threshold, Duration: cfg.Lockout.Duration},
		resolver:  resolver,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   metrics,
		decoyHash: decoyHash,
		now:       time.Now,
	}

	b.built = true

	return engine, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
