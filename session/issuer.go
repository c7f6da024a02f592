package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis failure seen by the [Issuer].
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionNotFound is returned when a token is invalid, expired, or revoked.
var ErrSessionNotFound = errors.New("session not found")

// Issuer creates, checks, and revokes sessions.
//
// An Issuer is safe for concurrent use; every call is independent and there is
// no limit on sessions per user.
type Issuer struct {
	redis  redis.UniversalClient
	prefix string
	tokens *jwt.Manager
	now    func() time.Time
}

// NewIssuer creates an [Issuer] storing records under prefix and signing tokens
// with tokens. The session TTL is the token TTL.
func NewIssuer(redisClient redis.UniversalClient, prefix string, tokens *jwt.Manager) *Issuer {
	if prefix == "" {
		prefix = "as"
	}
	return &Issuer{
		redis:  redisClient,
		prefix: prefix,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *Issuer) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// parse verifies token and rejects session ids this issuer could not have
// minted, so a forged sid never reaches Redis.
func (s *Issuer) parse(token string) (*jwt.SessionClaims, error) {
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if _, err := internal.ParseSessionID(claims.SID); err != nil {
		return nil, ErrSessionNotFound
	}
	return claims, nil
}

// Issue persists a new session for userID and returns its token. The returned
// token is the only handle to the session; there is no ambient "current" token.
//
//	Performance: 1 Redis SET.
func (s *Issuer) Issue(ctx context.Context, userID string) (string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return "", err
	}

	now := s.now()
	ttl := s.tokens.TTL()
	sess := &Session{
		SessionID: sid.String(),
		UserID:    userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	data, err := Encode(sess)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.CreateSession(userID, sess.SessionID, now)
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return token, nil
}

// Lookup resolves token to its live session record.
//
//	Performance: 1 Redis GET.
func (s *Issuer) Lookup(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	data, err := s.redis.Get(ctx, s.key(claims.SID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	sess.SessionID = claims.SID

	if sess.UserID != claims.UID || s.now().Unix() > sess.ExpiresAt {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// IsActive reports whether token names a live session. An invalid or revoked
// token is (false, nil); only Redis failures return an error.
func (s *Issuer) IsActive(ctx context.Context, token string) (bool, error) {
	_, err := s.Lookup(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionNotFound):
		return false, nil
	default:
		return false, err
	}
}

// UserID returns the user bound to a live session token.
func (s *Issuer) UserID(ctx context.Context, token string) (string, error) {
	sess, err := s.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// Revoke deletes the session behind token. Revoking an already removed session
// is a no-op; a token that does not parse returns [ErrSessionNotFound].
//
//	Performance: 1 Redis DEL.
func (s *Issuer) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	if err := s.redis.Del(ctx, s.key(claims.SID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Issuer) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
