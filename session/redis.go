package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript atomically fetches and deletes a session. The user index
// key is derived inside the script by parsing the user id out of the blob
// (version byte, then a length-prefixed user id), so fetch, delete, and
// index maintenance happen in one Redis round trip. Only one of any set of
// concurrent callers can observe the blob.
const consumeScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return false
end
local user_len = string.byte(data, 2)
if not user_len then
  return false
end
local user_id = string.sub(data, 3, 2 + user_len)
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[2] .. user_id, ARGV[1])
return data
`

const deleteScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local user_len = string.byte(data, 2)
if user_len then
  local user_id = string.sub(data, 3, 2 + user_len)
  redis.call("SREM", ARGV[2] .. user_id, ARGV[1])
end
redis.call("DEL", KEYS[1])
return 1
`

// touchScript replaces the blob only while the session still exists, so a
// concurrent Consume can never be undone by a stale touch.
const touchScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`

// revokeAllScript deletes every session in the user index and the index
// itself in one round trip, so a session created concurrently with a
// revoke-all cannot slip between the enumeration and the deletes.
const revokeAllScript = `
local ids = redis.call("SMEMBERS", KEYS[1])
for i = 1, #ids do
  redis.call("DEL", ARGV[1] .. ids[i])
end
redis.call("DEL", KEYS[1])
return #ids
`

var (
	consumeLua   = redis.NewScript(consumeScript)
	deleteLua    = redis.NewScript(deleteScript)
	touchLua     = redis.NewScript(touchScript)
	revokeAllLua = redis.NewScript(revokeAllScript)
)

// RedisStore is the production [Store] implementation.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a [RedisStore]. prefix namespaces all keys; the
// default is "cs".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cs"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

func (s *RedisStore) userKeyPrefix() string {
	return s.prefix + ":u:"
}

func (s *RedisStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		pipe.Expire(ctx, s.userKey(sess.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID

	if sess.Expired(s.now()) {
		_ = s.Invalidate(ctx, sessionID)
		return nil, ErrNotFound
	}

	return sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, sessionID string, at time.Time, ttl time.Duration) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.LastActivity = at.Unix()

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	// Never extend past the session's absolute expiry: the session must not
	// outlive its refresh token.
	px := ttl
	if remaining := time.Unix(sess.ExpiresAt, 0).Sub(s.now()); remaining < px {
		px = remaining
	}
	if px <= 0 {
		return ErrNotFound
	}

	n, err := touchLua.Run(ctx, s.redis,
		[]string{s.key(sessionID)},
		data, strconv.FormatInt(px.Milliseconds(), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *RedisStore) Consume(ctx context.Context, sessionID string) (*Session, error) {
	res, err := consumeLua.Run(ctx, s.redis,
		[]string{s.key(sessionID)},
		sessionID, s.userKeyPrefix(),
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, ErrNotFound
	}

	sess, err := Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID

	if sess.Expired(s.now()) {
		return nil, ErrNotFound
	}

	return sess, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, sessionID string) error {
	err := deleteLua.Run(ctx, s.redis,
		[]string{s.key(sessionID)},
		sessionID, s.userKeyPrefix(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	err := revokeAllLua.Run(ctx, s.redis,
		[]string{s.userKey(userID)},
		s.prefix+":",
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) SessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// The index can lag behind expired entries; report only live sessions.
	live := ids[:0]
	for _, id := range ids {
		exists, err := s.redis.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if exists == 1 {
			live = append(live, id)
		}
	}

	return live, nil
}
