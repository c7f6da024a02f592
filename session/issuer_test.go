package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIssuerTest(t *testing.T) (*Issuer, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	tokens, err := jwt.NewManager(jwt.Config{TTL: time.Hour, SigningMethod: jwt.MethodHS256, PrivateKey: []byte("test-secret")})
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	return NewIssuer(rdb, "as", tokens), mr, rdb
}

func TestIssueThenIsActive(t *testing.T) {
	issuer, mr, _ := newIssuerTest(t)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	active, err := issuer.IsActive(ctx, token)
	if err != nil || !active {
		t.Fatalf("expected active session, got %v %v", active, err)
	}

	sess, err := issuer.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sess.UserID != "u1" {
		t.Fatalf("expected u1, got %s", sess.UserID)
	}
	if ttl := mr.TTL("as:" + sess.SessionID); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	uid, err := issuer.UserID(ctx, token)
	if err != nil || uid != "u1" {
		t.Fatalf("expected u1 from UserID, got %q %v", uid, err)
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	issuer, _, _ := newIssuerTest(t)
	ctx := context.Background()

	a, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for separate issuances")
	}
}

func TestRevokeDeactivates(t *testing.T) {
	issuer, _, _ := newIssuerTest(t)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := issuer.Revoke(ctx, token); err != nil {
		t.Fatalf("second revoke should be a no-op: %v", err)
	}

	active, err := issuer.IsActive(ctx, token)
	if err != nil || active {
		t.Fatalf("expected inactive session, got %v %v", active, err)
	}
	if _, err := issuer.Lookup(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExpiredRecordIsInactive(t *testing.T) {
	issuer, mr, _ := newIssuerTest(t)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	active, err := issuer.IsActive(ctx, token)
	if err != nil || active {
		t.Fatalf("expected expired session to be inactive, got %v %v", active, err)
	}
}

func TestGarbageTokenIsInactive(t *testing.T) {
	issuer, _, _ := newIssuerTest(t)
	ctx := context.Background()

	active, err := issuer.IsActive(ctx, "garbage")
	if err != nil || active {
		t.Fatalf("expected garbage token to be inactive, got %v %v", active, err)
	}
	if err := issuer.Revoke(ctx, "garbage"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRecordUserMismatchIsInactive(t *testing.T) {
	issuer, _, rdb := newIssuerTest(t)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sess, err := issuer.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	forged, err := Encode(&Session{UserID: "u2", CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := rdb.Set(ctx, "as:"+sess.SessionID, forged, time.Hour).Err(); err != nil {
		t.Fatalf("seed forged record: %v", err)
	}

	active, err := issuer.IsActive(ctx, token)
	if err != nil || active {
		t.Fatalf("expected mismatched record to be inactive, got %v %v", active, err)
	}
}

func TestRedisDownSurfacesUnavailable(t *testing.T) {
	issuer, mr, _ := newIssuerTest(t)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.Close()

	if _, err := issuer.Issue(ctx, "u1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable on issue, got %v", err)
	}
	if _, err := issuer.IsActive(ctx, token); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable on IsActive, got %v", err)
	}
	if _, err := issuer.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable on ping, got %v", err)
	}
}

func TestForgedSessionIDNeverReachesRedis(t *testing.T) {
	issuer, mr, _ := newIssuerTest(t)
	ctx := context.Background()

	for _, sid := range []string{"", "not base64!", "c2hvcnQ", "as:other"} {
		token, err := issuer.tokens.CreateSession("u1", sid, time.Now())
		if err != nil {
			t.Fatalf("create token: %v", err)
		}
		mr.Set("as:"+sid, "anything")

		if _, err := issuer.Lookup(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("sid %q: expected ErrSessionNotFound from lookup, got %v", sid, err)
		}
		if err := issuer.Revoke(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("sid %q: expected ErrSessionNotFound from revoke, got %v", sid, err)
		}
		if !mr.Exists("as:" + sid) {
			t.Fatalf("sid %q: revoke must not touch redis", sid)
		}
	}

	mr.Close()
	token, err := issuer.tokens.CreateSession("u1", "bogus", time.Now())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if active, err := issuer.IsActive(ctx, token); err != nil || active {
		t.Fatalf("expected inactive without redis traffic, got %v %v", active, err)
	}
}
