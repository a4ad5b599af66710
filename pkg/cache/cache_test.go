package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 'x'}
	if err := c.Set(ctx, "table:abc", payload, 0); err != nil {
		t.Fatal(err)
	}

	got, hit, err := c.Get(ctx, "table:abc")
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload not byte-exact: %v vs %v", got, payload)
	}

	// Unknown key misses without error.
	if _, hit, err := c.Get(ctx, "other"); err != nil || hit {
		t.Errorf("Get(other) = hit=%v err=%v, want miss", hit, err)
	}

	if err := c.Delete(ctx, "table:abc"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "table:abc"); hit {
		t.Error("entry survived Delete")
	}
	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "table:abc"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "ephemeral", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "ephemeral"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Same inputs, same key
	if k.TableKey("p1", "perm[0-7]", "3,0") != k.TableKey("p1", "perm[0-7]", "3,0") {
		t.Error("TableKey should be deterministic")
	}

	// Any differing component changes the key
	if k.TableKey("p1", "perm[0-7]", "3,0") == k.TableKey("p2", "perm[0-7]", "3,0") {
		t.Error("Different puzzles should produce different table keys")
	}
	if k.TableKey("p1", "perm[0-7]", "3,0") == k.TableKey("p1", "ori[0-7]", "3,0") {
		t.Error("Different schemes should produce different table keys")
	}
	if k.TableKey("p1", "perm[0-7]", "3,0") == k.TableKey("p1", "perm[0-7]", "4,0") {
		t.Error("Different targets should produce different table keys")
	}

	if k.SolutionKey("p1", "3,0") == k.SolutionKey("p1", "3,1") {
		t.Error("Different targets should produce different solution keys")
	}
	if k.SolutionKey("p1", "3,0") == k.TableKey("p1", "perm[0-7]", "3,0") {
		t.Error("Solution and table namespaces must not collide")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "lab:7:")

	key := scoped.TableKey("p1", "perm[0-7]", "3,0")
	if key != "lab:7:"+inner.TableKey("p1", "perm[0-7]", "3,0") {
		t.Errorf("ScopedKeyer TableKey unexpected: %s", key)
	}
	sk := scoped.SolutionKey("p1", "3,0")
	if len(sk) < 7 || sk[:6] != "lab:7:" {
		t.Errorf("ScopedKeyer SolutionKey should be prefixed: %s", sk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.TableKey("p", "s", "t")
	if key != "prefix:"+NewDefaultKeyer().TableKey("p", "s", "t") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	base := errors.New("connection reset")

	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(base)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != base.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(base) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("timeout")
	permanent := errors.New("bad request")

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if err != permanent {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(transient)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("timeout"))
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
