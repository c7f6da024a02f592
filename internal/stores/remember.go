package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRememberPrefix is the key namespace used when none is configured.
const DefaultRememberPrefix = "login:remember:"

var (
	ErrRememberNotFound = errors.New("remember entry not found")
	ErrRememberBackend  = errors.New("remember backend unavailable")
)

// rotateRememberScript moves KEYS[1] to KEYS[2] keeping the remaining TTL.
// Returns 0 when KEYS[1] is missing or has no expiry left.
const rotateRememberScript = `
local v = redis.call("GET", KEYS[1])
if not v then
  return 0
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  return 0
end
redis.call("SET", KEYS[2], v, "PX", ttl)
redis.call("DEL", KEYS[1])
return 1
`

var rotateRememberLua = redis.NewScript(rotateRememberScript)

type RememberStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRememberStore(redisClient redis.UniversalClient, prefix string) *RememberStore {
	if prefix == "" {
		prefix = DefaultRememberPrefix
	}
	return &RememberStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RememberStore) key(token string) string {
	return s.prefix + token
}

// Set writes token -> userID with ttl. An existing entry for the same token is
// replaced and its TTL restarts.
func (s *RememberStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || userID == "" {
		return errors.New("remember token and user id are required")
	}
	if ttl <= 0 {
		return errors.New("remember ttl must be positive")
	}
	if err := s.redis.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRememberBackend, err)
	}
	return nil
}

func (s *RememberStore) Get(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrRememberNotFound
	}

	userID, err := s.redis.Get(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRememberNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRememberBackend, err)
	}
	if userID == "" {
		return "", ErrRememberNotFound
	}
	return userID, nil
}

// Rotate moves the entry for from to to, atomically. The expiry is carried
// over unchanged, never extended. A missing or expired source entry returns
// [ErrRememberNotFound].
//
//	Performance: 1 Redis EVALSHA.
func (s *RememberStore) Rotate(ctx context.Context, from, to string) error {
	if from == "" {
		return ErrRememberNotFound
	}
	if to == "" || to == from {
		return errors.New("remember rotation requires a distinct target token")
	}

	moved, err := rotateRememberLua.Run(ctx, s.redis, []string{s.key(from), s.key(to)}).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRememberBackend, err)
	}
	if moved == 0 {
		return ErrRememberNotFound
	}
	return nil
}

func (s *RememberStore) Exists(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRememberBackend, err)
	}
	return n > 0, nil
}

func (s *RememberStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRememberBackend, err)
	}
	return nil
}
