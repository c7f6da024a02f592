package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRememberStoreTest(t *testing.T, prefix string) (*RememberStore, *miniredis.Miniredis) {
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

	return NewRememberStore(rdb, prefix), mr
}

func TestRememberSetGet(t *testing.T) {
	store, mr := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "tok-1", "u1", 7*24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	userID, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %s", userID)
	}

	key := DefaultRememberPrefix + "tok-1"
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to exist", key)
	}
	if ttl := mr.TTL(key); ttl != 7*24*time.Hour {
		t.Fatalf("expected 7d ttl, got %v", ttl)
	}
}

func TestRememberCustomPrefix(t *testing.T) {
	store, mr := newRememberStoreTest(t, "app:rm:")
	ctx := context.Background()

	if err := store.Set(ctx, "tok", "u1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("app:rm:tok") {
		t.Fatal("expected prefixed key")
	}
}

func TestRememberExpiredEntryIsNotFound(t *testing.T) {
	store, mr := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "tok-1", "u1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(time.Hour + time.Second)

	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, ErrRememberNotFound) {
		t.Fatalf("expected ErrRememberNotFound, got %v", err)
	}
	exists, err := store.Exists(ctx, "tok-1")
	if err != nil || exists {
		t.Fatalf("expected expired entry to be absent, got %v %v", exists, err)
	}
}

func TestRememberGetMissingAndEmpty(t *testing.T) {
	store, _ := newRememberStoreTest(t, "")
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrRememberNotFound) {
		t.Fatalf("expected ErrRememberNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, ""); !errors.Is(err, ErrRememberNotFound) {
		t.Fatalf("expected ErrRememberNotFound for empty token, got %v", err)
	}
}

func TestRememberSetValidation(t *testing.T) {
	store, _ := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "", "u1", time.Hour); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
	if err := store.Set(ctx, "tok", "", time.Hour); err == nil {
		t.Fatal("expected empty user id to be rejected")
	}
	if err := store.Set(ctx, "tok", "u1", 0); err == nil {
		t.Fatal("expected zero ttl to be rejected")
	}
}

func TestRememberDelete(t *testing.T) {
	store, _ := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "tok-1", "u1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	exists, err := store.Exists(ctx, "tok-1")
	if err != nil || exists {
		t.Fatalf("expected deleted entry to be absent, got %v %v", exists, err)
	}
}

func TestRememberRotateKeepsRemainingTTL(t *testing.T) {
	store, mr := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "tok-1", "u1", 7*24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if err := store.Rotate(ctx, "tok-1", "tok-2"); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if mr.Exists(DefaultRememberPrefix + "tok-1") {
		t.Fatal("expected source key to be removed")
	}
	userID, err := store.Get(ctx, "tok-2")
	if err != nil || userID != "u1" {
		t.Fatalf("expected u1 under new token, got %q %v", userID, err)
	}
	if ttl := mr.TTL(DefaultRememberPrefix + "tok-2"); ttl != 7*24*time.Hour-2*time.Hour {
		t.Fatalf("expected remaining ttl to carry over, got %v", ttl)
	}
}

func TestRememberRotateMissingAndInvalid(t *testing.T) {
	store, mr := newRememberStoreTest(t, "")
	ctx := context.Background()

	if err := store.Rotate(ctx, "missing", "tok-2"); !errors.Is(err, ErrRememberNotFound) {
		t.Fatalf("expected ErrRememberNotFound, got %v", err)
	}
	if mr.Exists(DefaultRememberPrefix + "tok-2") {
		t.Fatal("expected no target key for a missing source")
	}
	if err := store.Rotate(ctx, "", "tok-2"); !errors.Is(err, ErrRememberNotFound) {
		t.Fatalf("expected ErrRememberNotFound for empty source, got %v", err)
	}

	if err := store.Set(ctx, "tok-1", "u1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Rotate(ctx, "tok-1", "tok-1"); err == nil {
		t.Fatal("expected rotation onto the same token to be rejected")
	}
	if !mr.Exists(DefaultRememberPrefix + "tok-1") {
		t.Fatal("expected rejected rotation to leave the entry in place")
	}
}

func TestRememberBackendDown(t *testing.T) {
	store, mr := newRememberStoreTest(t, "")
	ctx := context.Background()
	mr.Close()

	if err := store.Set(ctx, "tok", "u1", time.Hour); !errors.Is(err, ErrRememberBackend) {
		t.Fatalf("expected ErrRememberBackend on set, got %v", err)
	}
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, ErrRememberBackend) {
		t.Fatalf("expected ErrRememberBackend on get, got %v", err)
	}
	if _, err := store.Exists(ctx, "tok"); !errors.Is(err, ErrRememberBackend) {
		t.Fatalf("expected ErrRememberBackend on exists, got %v", err)
	}
	if err := store.Rotate(ctx, "tok", "tok-2"); !errors.Is(err, ErrRememberBackend) {
		t.Fatalf("expected ErrRememberBackend on rotate, got %v", err)
	}
}
